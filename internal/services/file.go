package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/clients/gcp"
	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/repos"
	"github.com/drivewise/drivewise-backend/internal/requestdata"
	"github.com/drivewise/drivewise-backend/internal/types"
)

const MaxUploadBytes = 200 << 20

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".zip":  true,
}

var allowedContentPrefixes = []string{"image/", "application/", "text/"}

// FileUpload is one incoming file. Size must be known up front (multipart
// header); the reader is consumed only after validation passes.
type FileUpload struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader

	// Marks the upload visible to teachers and methodists only.
	TeacherMaterial bool
}

// FileResult reports the outcome per file. A batch never fails as a whole:
// good files land, bad files carry their own reason.
type FileResult struct {
	Name  string            `json:"name"`
	File  *types.LessonFile `json:"file,omitempty"`
	Error string            `json:"error,omitempty"`
}

type FileService interface {
	// AttachToLesson validates and stores a batch of lesson materials.
	AttachToLesson(ctx context.Context, lessonID uuid.UUID, uploads []FileUpload) ([]FileResult, error)
	// StoreSubmission validates and stores one submission file, returning
	// the handle the assignment service records.
	StoreSubmission(ctx context.Context, assignmentID uuid.UUID, upload FileUpload) (*SubmissionInput, error)
	OpenLessonFile(ctx context.Context, fileID uuid.UUID) (*types.LessonFile, io.ReadCloser, error)
}

type fileService struct {
	db         *gorm.DB
	log        *logger.Logger
	bucket     gcp.BucketService
	lessonRepo repos.LessonRepo
	fileRepo   repos.LessonFileRepo
}

func NewFileService(
	db *gorm.DB,
	log *logger.Logger,
	bucket gcp.BucketService,
	lessonRepo repos.LessonRepo,
	fileRepo repos.LessonFileRepo,
) FileService {
	return &fileService{
		db:         db,
		log:        log.With("service", "FileService"),
		bucket:     bucket,
		lessonRepo: lessonRepo,
		fileRepo:   fileRepo,
	}
}

// ValidateUpload applies the intake rules: known extension, acceptable
// content-type family, size within the cap.
func ValidateUpload(up FileUpload) error {
	ext := strings.ToLower(filepath.Ext(up.Name))
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w: file type %q is not allowed", ErrValidation, ext)
	}
	if up.ContentType != "" {
		ok := false
		for _, prefix := range allowedContentPrefixes {
			if strings.HasPrefix(up.ContentType, prefix) {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("%w: content type %q is not allowed", ErrValidation, up.ContentType)
		}
	}
	if up.Size <= 0 {
		return fmt.Errorf("%w: empty file", ErrValidation)
	}
	if up.Size > MaxUploadBytes {
		return fmt.Errorf("%w: file exceeds the %dMB limit", ErrValidation, MaxUploadBytes>>20)
	}
	return nil
}

func (s *fileService) AttachToLesson(ctx context.Context, lessonID uuid.UUID, uploads []FileUpload) ([]FileResult, error) {
	if s.bucket == nil {
		return nil, fmt.Errorf("%w: file storage is not configured", ErrValidation)
	}
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrPermission
	}
	lesson, err := s.lessonRepo.GetByID(ctx, nil, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	switch rd.Role {
	case types.RoleMethodist:
	case types.RoleTeacher:
		if lesson.TeacherID != rd.UserID {
			return nil, ErrPermission
		}
	default:
		return nil, fmt.Errorf("%w: only the lesson teacher or a methodist can attach materials", ErrPermission)
	}

	results := make([]FileResult, 0, len(uploads))
	for _, up := range uploads {
		result := FileResult{Name: up.Name}
		if err := ValidateUpload(up); err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		key := fmt.Sprintf("lessons/%s/%s%s", lesson.ID, uuid.New(), strings.ToLower(filepath.Ext(up.Name)))
		if err := s.bucket.UploadFile(ctx, gcp.BucketCategoryMaterial, key, up.Reader); err != nil {
			s.log.Error("material upload failed", "lesson_id", lesson.ID, "name", up.Name, "error", err)
			result.Error = "upload failed"
			results = append(results, result)
			continue
		}

		file := &types.LessonFile{
			LessonID:          lesson.ID,
			BucketKey:         key,
			OriginalName:      up.Name,
			ContentType:       up.ContentType,
			FileSize:          up.Size,
			IsTeacherMaterial: up.TeacherMaterial,
		}
		if _, err := s.fileRepo.Create(ctx, nil, file); err != nil {
			result.Error = "could not record file"
			results = append(results, result)
			continue
		}
		result.File = file
		results = append(results, result)
	}
	return results, nil
}

func (s *fileService) StoreSubmission(ctx context.Context, assignmentID uuid.UUID, upload FileUpload) (*SubmissionInput, error) {
	if s.bucket == nil {
		return nil, fmt.Errorf("%w: file storage is not configured", ErrValidation)
	}
	if err := ValidateUpload(upload); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("assignments/%s/%s%s", assignmentID, uuid.New(), strings.ToLower(filepath.Ext(upload.Name)))
	if err := s.bucket.UploadFile(ctx, gcp.BucketCategorySubmission, key, upload.Reader); err != nil {
		return nil, fmt.Errorf("failed to store submission: %w", err)
	}
	return &SubmissionInput{
		BucketKey:    key,
		OriginalName: upload.Name,
		ContentType:  upload.ContentType,
		FileSize:     upload.Size,
	}, nil
}

func (s *fileService) OpenLessonFile(ctx context.Context, fileID uuid.UUID) (*types.LessonFile, io.ReadCloser, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, nil, ErrPermission
	}
	file, err := s.fileRepo.GetByID(ctx, nil, fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	lesson, err := s.lessonRepo.GetByID(ctx, nil, file.LessonID)
	if err != nil {
		return nil, nil, err
	}
	switch rd.Role {
	case types.RoleMethodist:
	case types.RoleTeacher:
		if lesson.TeacherID != rd.UserID {
			return nil, nil, ErrPermission
		}
	case types.RoleStudent:
		if lesson.StudentID != rd.UserID || file.IsTeacherMaterial {
			return nil, nil, ErrPermission
		}
	default:
		return nil, nil, ErrPermission
	}

	if s.bucket == nil {
		return nil, nil, fmt.Errorf("%w: file storage is not configured", ErrValidation)
	}
	rc, err := s.bucket.DownloadFile(ctx, gcp.BucketCategoryMaterial, file.BucketKey)
	if err != nil {
		return nil, nil, err
	}
	return file, rc, nil
}
