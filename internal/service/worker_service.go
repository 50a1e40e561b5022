package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"handyhub/internal/media"
	"handyhub/internal/model"
	"handyhub/internal/notify"
	"handyhub/internal/repository"
	"handyhub/pkg/apperror"
	"handyhub/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	folderIDDocuments    = "id-documents"
	folderCertifications = "certifications"
	folderProfilePhotos  = "profile-photos"

	maxCertifications = 10
	profilePhotoWidth = 512
)

// --- DTOs ---

type BackgroundCheckInput struct {
	HasConvictions bool   `json:"has_convictions"`
	Details        string `json:"details" binding:"max=1000"`
}

// SaveApplicationRequest is a partial update; nil fields are left alone
type SaveApplicationRequest struct {
	FullName        *string               `json:"full_name" binding:"omitempty,max=120"`
	Email           *string               `json:"email" binding:"omitempty,email"`
	Phone           *string               `json:"phone" binding:"omitempty,max=20"`
	Address         *string               `json:"address" binding:"omitempty,max=255"`
	City            *string               `json:"city" binding:"omitempty,max=100"`
	Services        []model.ServiceKind   `json:"services" binding:"omitempty,dive,workerservice"`
	Experience      *string               `json:"experience" binding:"omitempty,oneof=0-1 1-3 3-5 5-10 10+"`
	HourlyRate      *decimal.Decimal      `json:"hourly_rate"`
	Availability    []string              `json:"availability" binding:"omitempty,dive,slot"`
	Bio             *string               `json:"bio" binding:"omitempty,max=2000"`
	BackgroundCheck *BackgroundCheckInput `json:"background_check"`
}

// UploadedFile is a multipart file already read into memory
type UploadedFile struct {
	Filename string
	Data     []byte
}

type RejectApplicationRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

type WorkerListQuery struct {
	Status  model.ApplicationStatus `form:"status" binding:"omitempty,oneof=incomplete pending approved rejected"`
	Service model.ServiceKind       `form:"service" binding:"omitempty,workerservice"`
	City    string                  `form:"city"`
}

// ApplicationResponse is the full record as seen by the applicant and admins
type ApplicationResponse struct {
	*model.Worker
	MissingFields []string `json:"missing_fields"`
}

// PublicWorkerResponse is what customers see when choosing a worker
type PublicWorkerResponse struct {
	ID                uuid.UUID           `json:"id"`
	FullName          string              `json:"full_name"`
	City              string              `json:"city"`
	Services          []model.ServiceKind `json:"services"`
	Experience        string              `json:"experience"`
	HourlyRate        decimal.Decimal     `json:"hourly_rate"`
	Availability      []string            `json:"availability"`
	Bio               string              `json:"bio"`
	PhotoURL          string              `json:"photo_url,omitempty"`
	Certifications    int                 `json:"certifications"`
	Rating            model.Rating        `json:"rating"`
	CompletedBookings int                 `json:"completed_bookings"`
	MemberSince       string              `json:"member_since"`
}

// --- Interface ---

type WorkerService interface {
	// GetApplication returns the caller's application, creating it on first access
	GetApplication(ctx context.Context, userID uuid.UUID) (*ApplicationResponse, error)
	SaveDraft(ctx context.Context, userID uuid.UUID, req SaveApplicationRequest) (*ApplicationResponse, error)
	UploadIDDocument(ctx context.Context, userID uuid.UUID, file UploadedFile) (*ApplicationResponse, error)
	UploadCertification(ctx context.Context, userID uuid.UUID, file UploadedFile) (*ApplicationResponse, error)
	UploadProfilePhoto(ctx context.Context, userID uuid.UUID, file UploadedFile) (*ApplicationResponse, error)
	Submit(ctx context.Context, userID uuid.UUID) (*ApplicationResponse, error)

	Approve(ctx context.Context, actor Actor, workerID uuid.UUID) (*ApplicationResponse, error)
	Reject(ctx context.Context, actor Actor, workerID uuid.UUID, reason string) (*ApplicationResponse, error)
	ListApplications(ctx context.Context, q WorkerListQuery, p pagination.Params) ([]ApplicationResponse, int64, error)
	GetApplicationByID(ctx context.Context, workerID uuid.UUID) (*ApplicationResponse, error)

	ListApproved(ctx context.Context, q WorkerListQuery, p pagination.Params) ([]PublicWorkerResponse, int64, error)
	GetPublicProfile(ctx context.Context, workerID uuid.UUID) (*PublicWorkerResponse, error)
}

type workerService struct {
	workers  repository.WorkerRepository
	users    repository.UserRepository
	audit    AuditService
	tx       repository.TransactionManager
	store    media.Store
	notify   notify.Dispatcher
	maxBytes int64
	now      Clock
}

func NewWorkerService(
	workers repository.WorkerRepository,
	users repository.UserRepository,
	audit AuditService,
	tx repository.TransactionManager,
	store media.Store,
	dispatcher notify.Dispatcher,
	maxUploadBytes int64,
) WorkerService {
	return &workerService{
		workers:  workers,
		users:    users,
		audit:    audit,
		tx:       tx,
		store:    store,
		notify:   dispatcher,
		maxBytes: maxUploadBytes,
		now:      systemClock,
	}
}

func mapApplication(w *model.Worker) *ApplicationResponse {
	if w.Certifications == nil {
		w.Certifications = []model.StoredFile{}
	}
	missing := w.MissingForSubmission()
	if missing == nil {
		missing = []string{}
	}
	return &ApplicationResponse{Worker: w, MissingFields: missing}
}

func mapPublicWorker(w *model.Worker) *PublicWorkerResponse {
	res := &PublicWorkerResponse{
		ID:                w.ID,
		FullName:          w.FullName,
		City:              w.City,
		Services:          w.Services,
		Experience:        w.Experience,
		HourlyRate:        w.HourlyRate,
		Availability:      w.Availability,
		Bio:               w.Bio,
		Certifications:    len(w.Certifications),
		Rating:            w.Rating,
		CompletedBookings: w.Stats.CompletedBookings,
		MemberSince:       formatTime(w.CreatedAt),
	}
	if w.ProfilePhoto != nil {
		res.PhotoURL = w.ProfilePhoto.URL
	}
	return res
}

// load returns the caller's worker record, creating a draft prefilled from the account when missing
func (s *workerService) load(ctx context.Context, userID uuid.UUID) (*model.Worker, error) {
	w, err := s.workers.GetByUserID(ctx, userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	w = &model.Worker{
		UserID:            user.ID,
		FullName:          user.Name,
		Email:             user.Email,
		Phone:             user.Phone,
		Address:           user.Location.Address,
		Services:          []model.ServiceKind{},
		Availability:      []string{},
		Certifications:    []model.StoredFile{},
		BackgroundCheck:   model.BackgroundCheck{Status: "not-started"},
		ApplicationStatus: model.ApplicationIncomplete,
	}
	if err := s.workers.Create(ctx, w); err != nil {
		// a concurrent request created it first
		if errors.Is(err, apperror.ErrAlreadyExists) {
			return s.workers.GetByUserID(ctx, userID)
		}
		return nil, err
	}
	return w, nil
}

func (s *workerService) GetApplication(ctx context.Context, userID uuid.UUID) (*ApplicationResponse, error) {
	w, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return mapApplication(w), nil
}

func (s *workerService) SaveDraft(ctx context.Context, userID uuid.UUID, req SaveApplicationRequest) (*ApplicationResponse, error) {
	w, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&w.FullName, req.FullName)
	set(&w.Email, req.Email)
	set(&w.Phone, req.Phone)
	set(&w.Address, req.Address)
	set(&w.City, req.City)
	set(&w.Bio, req.Bio)
	if req.Email != nil {
		w.Email = strings.ToLower(w.Email)
	}

	if req.Services != nil {
		for _, k := range req.Services {
			if !k.Valid() {
				fields["services"] = fmt.Sprintf("unknown service %q", k)
			}
		}
		w.Services = dedupe(req.Services)
	}
	if req.Availability != nil {
		for _, slot := range req.Availability {
			if !model.ValidSlot(slot) {
				fields["availability"] = fmt.Sprintf("unknown slot %q", slot)
			}
		}
		w.Availability = dedupe(req.Availability)
	}
	if req.Experience != nil {
		if !model.ValidExperience(*req.Experience) {
			fields["experience"] = "must be one of 0-1, 1-3, 3-5, 5-10, 10+"
		}
		w.Experience = *req.Experience
	}
	if req.HourlyRate != nil {
		rate := *req.HourlyRate
		w.HourlyRate = rate
		if !w.RateInRange() {
			fields["hourly_rate"] = "must be between 10 and 200"
		}
	}
	if req.BackgroundCheck != nil {
		w.BackgroundCheck.HasConvictions = req.BackgroundCheck.HasConvictions
		w.BackgroundCheck.Details = strings.TrimSpace(req.BackgroundCheck.Details)
		if w.BackgroundCheck.Status == "" || w.BackgroundCheck.Status == "not-started" {
			w.BackgroundCheck.Status = "pending"
		}
	}
	if len(fields) > 0 {
		return nil, apperror.Validation("Invalid application data", fields)
	}

	if err := s.workers.Update(ctx, w); err != nil {
		return nil, err
	}
	return mapApplication(w), nil
}

func dedupe[T comparable](in []T) []T {
	seen := make(map[T]struct{}, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func (s *workerService) storedFile(obj media.Object, filename string) *model.StoredFile {
	return &model.StoredFile{
		URL:          obj.URL,
		PublicID:     obj.PublicID,
		OriginalName: filepath.Base(filename),
		UploadedAt:   s.now(),
	}
}

// UploadIDDocument replaces the identity document. The previous object is
// removed from the media host only once the new one is recorded.
func (s *workerService) UploadIDDocument(ctx context.Context, userID uuid.UUID, file UploadedFile) (*ApplicationResponse, error) {
	if _, err := media.ValidateDocument(file.Data, file.Filename, s.maxBytes); err != nil {
		return nil, err
	}
	w, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if w.ApplicationStatus == model.ApplicationPending || w.ApplicationStatus == model.ApplicationApproved {
		return nil, apperror.Conflict(fmt.Sprintf("Identity document cannot be changed while the application is %s", w.ApplicationStatus))
	}

	obj, err := s.store.Upload(ctx, file.Data, file.Filename, folderIDDocuments)
	if err != nil {
		return nil, err
	}
	previous := w.IDDocument
	w.IDDocument = s.storedFile(obj, file.Filename)

	if err := s.workers.Update(ctx, w); err != nil {
		if delErr := s.store.Delete(ctx, obj.PublicID); delErr != nil {
			log.Printf("media: failed to delete orphaned identity document %s: %v", obj.PublicID, delErr)
		}
		return nil, err
	}
	if previous != nil && previous.PublicID != "" {
		if err := s.store.Delete(ctx, previous.PublicID); err != nil {
			log.Printf("media: failed to delete old identity document %s: %v", previous.PublicID, err)
		}
	}
	return mapApplication(w), nil
}

func (s *workerService) UploadCertification(ctx context.Context, userID uuid.UUID, file UploadedFile) (*ApplicationResponse, error) {
	if _, err := media.ValidateDocument(file.Data, file.Filename, s.maxBytes); err != nil {
		return nil, err
	}
	w, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(w.Certifications) >= maxCertifications {
		return nil, apperror.Validation(fmt.Sprintf("At most %d certifications can be uploaded", maxCertifications), map[string]string{"file": "too many certifications"})
	}

	obj, err := s.store.Upload(ctx, file.Data, file.Filename, folderCertifications)
	if err != nil {
		return nil, err
	}
	w.Certifications = append(w.Certifications, *s.storedFile(obj, file.Filename))

	if err := s.workers.Update(ctx, w); err != nil {
		return nil, err
	}
	return mapApplication(w), nil
}

func (s *workerService) UploadProfilePhoto(ctx context.Context, userID uuid.UUID, file UploadedFile) (*ApplicationResponse, error) {
	mime, err := media.ValidateDocument(file.Data, file.Filename, s.maxBytes)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(mime, "image/") {
		return nil, apperror.Validation("Profile photo must be a JPEG or PNG image", map[string]string{"file": "must be an image"})
	}
	normalized, err := media.NormalizeImage(file.Data, profilePhotoWidth)
	if err != nil {
		return nil, err
	}

	w, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(file.Filename), filepath.Ext(file.Filename)) + ".jpg"
	obj, err := s.store.Upload(ctx, normalized, name, folderProfilePhotos)
	if err != nil {
		return nil, err
	}
	previous := w.ProfilePhoto
	w.ProfilePhoto = s.storedFile(obj, name)

	if err := s.workers.Update(ctx, w); err != nil {
		return nil, err
	}
	if previous != nil && previous.PublicID != "" {
		if err := s.store.Delete(ctx, previous.PublicID); err != nil {
			log.Printf("media: failed to delete old profile photo %s: %v", previous.PublicID, err)
		}
	}
	return mapApplication(w), nil
}

// Submit moves an incomplete or rejected application to pending review
func (s *workerService) Submit(ctx context.Context, userID uuid.UUID) (*ApplicationResponse, error) {
	w, err := s.workers.GetByUserID(ctx, userID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.Validation("Government ID document is required", map[string]string{"id_document": "required"})
	}
	if err != nil {
		return nil, err
	}

	switch w.ApplicationStatus {
	case model.ApplicationPending:
		return nil, apperror.Conflict("Your application is already pending review")
	case model.ApplicationApproved:
		return nil, apperror.Conflict("Your application has already been approved")
	}
	if w.IDDocument == nil || w.IDDocument.URL == "" {
		return nil, apperror.Validation("Government ID document is required", map[string]string{"id_document": "required"})
	}

	now := s.now()
	w.ApplicationStatus = model.ApplicationPending
	w.SubmittedAt = &now
	w.RejectedAt = nil
	w.RejectionReason = ""

	// the model's save hook re-checks every required field
	if err := s.workers.Update(ctx, w); err != nil {
		return nil, err
	}
	return mapApplication(w), nil
}

// decide locks a pending application and applies fn to it
func (s *workerService) decide(ctx context.Context, workerID uuid.UUID, fn func(txCtx context.Context, w *model.Worker) error) (*model.Worker, error) {
	var worker *model.Worker
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		w, err := s.workers.GetByIDForUpdate(txCtx, workerID)
		if err != nil {
			return err
		}
		if w.ApplicationStatus != model.ApplicationPending {
			return apperror.InvalidState(fmt.Sprintf("Application is %s; only pending applications can be reviewed", w.ApplicationStatus))
		}
		if err := fn(txCtx, w); err != nil {
			return err
		}
		worker = w
		return nil
	})
	return worker, err
}

func (s *workerService) Approve(ctx context.Context, actor Actor, workerID uuid.UUID) (*ApplicationResponse, error) {
	w, err := s.decide(ctx, workerID, func(txCtx context.Context, w *model.Worker) error {
		now := s.now()
		adminID := actor.UserID
		w.ApplicationStatus = model.ApplicationApproved
		w.IsVerified = true
		w.ApprovedAt = &now
		w.ApprovedBy = &adminID
		w.BackgroundCheck.Status = "cleared"

		if err := s.workers.Update(txCtx, w); err != nil {
			return err
		}
		if err := s.users.UpdateRole(txCtx, w.UserID, model.RoleWorker); err != nil {
			return err
		}
		return s.audit.Record(txCtx, &adminID, model.ActionApproveWorker, w.ID.String(), w.FullName, map[string]interface{}{
			"user_id": w.UserID.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	sendEmail(ctx, s.notify, notify.Message{
		Kind: notify.KindApplicationDecision,
		To:   w.Email,
		Name: w.FullName,
		Data: map[string]string{"decision": "approved"},
	})
	return mapApplication(w), nil
}

func (s *workerService) Reject(ctx context.Context, actor Actor, workerID uuid.UUID, reason string) (*ApplicationResponse, error) {
	reason = strings.TrimSpace(reason)
	w, err := s.decide(ctx, workerID, func(txCtx context.Context, w *model.Worker) error {
		now := s.now()
		adminID := actor.UserID
		w.ApplicationStatus = model.ApplicationRejected
		w.RejectedAt = &now
		w.RejectionReason = reason

		if err := s.workers.Update(txCtx, w); err != nil {
			return err
		}
		return s.audit.Record(txCtx, &adminID, model.ActionRejectWorker, w.ID.String(), w.FullName, map[string]interface{}{
			"user_id": w.UserID.String(),
			"reason":  reason,
		})
	})
	if err != nil {
		return nil, err
	}

	sendEmail(ctx, s.notify, notify.Message{
		Kind: notify.KindApplicationDecision,
		To:   w.Email,
		Name: w.FullName,
		Data: map[string]string{"decision": "rejected", "reason": reason},
	})
	return mapApplication(w), nil
}

func (s *workerService) ListApplications(ctx context.Context, q WorkerListQuery, p pagination.Params) ([]ApplicationResponse, int64, error) {
	workers, total, err := s.workers.List(ctx, repository.WorkerFilter{Status: q.Status, Service: q.Service, City: q.City}, p)
	if err != nil {
		return nil, 0, err
	}
	res := make([]ApplicationResponse, 0, len(workers))
	for i := range workers {
		res = append(res, *mapApplication(&workers[i]))
	}
	return res, total, nil
}

func (s *workerService) GetApplicationByID(ctx context.Context, workerID uuid.UUID) (*ApplicationResponse, error) {
	w, err := s.workers.GetByID(ctx, workerID)
	if err != nil {
		return nil, err
	}
	return mapApplication(w), nil
}

func (s *workerService) ListApproved(ctx context.Context, q WorkerListQuery, p pagination.Params) ([]PublicWorkerResponse, int64, error) {
	filter := repository.WorkerFilter{Status: model.ApplicationApproved, Service: q.Service, City: q.City}
	workers, total, err := s.workers.List(ctx, filter, p)
	if err != nil {
		return nil, 0, err
	}
	res := make([]PublicWorkerResponse, 0, len(workers))
	for i := range workers {
		res = append(res, *mapPublicWorker(&workers[i]))
	}
	return res, total, nil
}

func (s *workerService) GetPublicProfile(ctx context.Context, workerID uuid.UUID) (*PublicWorkerResponse, error) {
	w, err := s.workers.GetByID(ctx, workerID)
	if err != nil {
		return nil, err
	}
	if w.ApplicationStatus != model.ApplicationApproved {
		return nil, apperror.NotFound("Worker not found")
	}
	return mapPublicWorker(w), nil
}
