package handler

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"handyhub/internal/middleware"
	"handyhub/internal/model"
	"handyhub/internal/service"
	"handyhub/pkg/apperror"
	"handyhub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags used by request DTOs
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})
		_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
			_, err := model.ParseClock(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("slot", func(fl validator.FieldLevel) bool {
			return model.ValidSlot(fl.Field().String())
		})
		_ = v.RegisterValidation("workerservice", func(fl validator.FieldLevel) bool {
			return model.ServiceKind(fl.Field().String()).Valid()
		})
	})
}

// respondError maps a service error onto the envelope and status for its kind
func respondError(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	status := apperror.HTTPStatus(kind)

	if kind == apperror.KindInternal {
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, response.Error("Internal server error", nil))
		return
	}

	var appErr *apperror.Error
	errors.As(err, &appErr)
	c.JSON(status, response.Error(capitalize(appErr.Message), appErr.Fields))
}

// respondBindError turns binding failures into field-level validation errors
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fieldPath(fe)] = describe(fe)
		}
		c.JSON(http.StatusBadRequest, response.Error("Validation failed", fields))
		return
	}
	c.JSON(http.StatusBadRequest, response.Error("Invalid request payload", nil))
}

// fieldPath drops the top-level struct name: "CreateBookingRequest.guest.email" -> "guest.email"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid id"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "hhmm":
		return "must be a time in HH:MM format"
	case "slot":
		return "must be a weekday-period slot such as monday-morning"
	case "workerservice":
		return "is not a known service"
	case "numeric":
		return "must contain digits only"
	case "latitude", "longitude":
		return "must be a valid " + fe.Tag()
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// actorFrom returns the authenticated caller. Routes using it sit behind RequireAuth or RequireRole.
func actorFrom(c *gin.Context) (service.Actor, bool) {
	userID, role, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Authentication required", nil))
		return service.Actor{}, false
	}
	return service.Actor{UserID: userID, Role: role}, true
}

func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid "+name, map[string]string{name: "must be a valid id"}))
		return uuid.Nil, false
	}
	return id, true
}

// readUpload reads one multipart file, refusing anything over maxBytes before it hits memory
func readUpload(c *gin.Context, field string, maxBytes int64) (service.UploadedFile, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+1<<20)

	fh, err := c.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, response.Error("File is too large", map[string]string{field: fmt.Sprintf("must be at most %d bytes", maxBytes)}))
			return service.UploadedFile{}, false
		}
		c.JSON(http.StatusBadRequest, response.Error("File is required", map[string]string{field: "is required"}))
		return service.UploadedFile{}, false
	}
	if fh.Size > maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, response.Error("File is too large", map[string]string{field: fmt.Sprintf("must be at most %d bytes", maxBytes)}))
		return service.UploadedFile{}, false
	}

	data, err := readFileHeader(fh)
	if err != nil {
		respondError(c, apperror.Internal(err))
		return service.UploadedFile{}, false
	}
	return service.UploadedFile{Filename: fh.Filename, Data: data}, true
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
