package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dharsanguruparan/imggen/internal/auth"
	"github.com/dharsanguruparan/imggen/internal/common"
	"github.com/dharsanguruparan/imggen/internal/model"
	"github.com/dharsanguruparan/imggen/internal/response"
	"github.com/dharsanguruparan/imggen/internal/storage"
)

// uploadFile stores the parsed file and records it:
// file → identity → metadata → key → object store → row → 200.
// Client mistakes are answered where they are found; anything past
// validation that fails becomes a generic 500.
func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	file, fields := formFromContext(ctx)
	if file == nil {
		response.Warning(w, "No file uploaded")
		return
	}
	user, ok := auth.UserFromContext(ctx)
	if !ok || user.ID == "" {
		response.Unauthorized(w, "User not authenticated")
		return
	}
	in := ParseUploadInput(fields)
	if err := in.Validate(); err != nil {
		response.Warning(w, err.Error())
		return
	}
	record, err := s.storeUpload(ctx, user.ID, file, in)
	if err != nil {
		s.logger.Error(ctx, "upload error", "user_id", user.ID, "file", file.OriginalName, "err", err)
		response.Error(w, err)
		return
	}
	if err := response.Success(w, "File uploaded successfully", record); err != nil {
		s.logger.Error(ctx, "write upload response", "err", err)
	}
}

func (s *Server) storeUpload(ctx context.Context, userID string, file *File, in UploadInput) (*model.Upload, error) {
	key := s.keys(userID, file.OriginalName)
	result, err := s.objects.Upload(ctx, storage.Object{
		Buffer:      file.Buffer,
		Key:         key,
		ContentType: file.MimeType,
		Metadata: map[string]string{
			"originalName": file.OriginalName,
			"userId":       userID,
			"purpose":      string(in.Purpose),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrUpstream, err)
	}

	record := &model.Upload{
		UserID:          userID,
		ThreadID:        optional(in.ThreadID),
		Title:           optional(in.Title),
		Purpose:         in.Purpose,
		MimeType:        file.MimeType,
		SizeBytes:       int64(len(file.Buffer)),
		StorageProvider: s.cfg.StorageProvider,
		StorageBucket:   s.cfg.StorageBucket,
		StorageKey:      key,
		PublicURL:       result.PublicURL,
	}
	if err := s.uploads.Create(ctx, record); err != nil {
		s.compensate(ctx, key, err)
		return nil, fmt.Errorf("%w: %w", common.ErrUpstream, err)
	}
	return record, nil
}

// compensate schedules deletion of an object whose row failed to persist.
// Without a Compensator the object is left in place.
func (s *Server) compensate(ctx context.Context, key string, cause error) {
	if s.compensator == nil {
		s.logger.Warn(ctx, "stored object left orphaned", "key", key)
		return
	}
	ctx = context.WithoutCancel(ctx)
	if err := s.compensator.ScheduleDelete(ctx, s.cfg.StorageBucket, key, cause.Error()); err != nil {
		s.logger.Error(ctx, "schedule orphan delete failed", "key", key, "err", err)
		return
	}
	s.logger.Info(ctx, "orphan delete scheduled", "key", key)
}

func (s *Server) getUpload(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	user, ok := auth.UserFromContext(ctx)
	if !ok {
		response.Unauthenticated(w)
		return
	}
	record, err := s.uploads.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			response.NotFound(w, "Upload not found")
			return
		}
		s.logger.Error(ctx, "get upload error", "id", id, "err", err)
		response.Error(w, err)
		return
	}
	if record.UserID != user.ID {
		response.NotFound(w, "Upload not found")
		return
	}
	if err := response.Success(w, "Upload retrieved successfully", record); err != nil {
		s.logger.Error(ctx, "write upload response", "err", err)
	}
}
