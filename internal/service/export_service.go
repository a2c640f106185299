package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/adcar/edx-platform/internal/dto"
	appErrors "github.com/adcar/edx-platform/pkg/errors"
	"github.com/adcar/edx-platform/pkg/export"
	"github.com/adcar/edx-platform/pkg/storage"
)

// ExportFormat names a supported dashboard export rendering.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type statusRenderer interface {
	RenderStatus(ctx context.Context, learnerID string) (*dto.DashboardStatusResponse, bool, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(t export.Table) ([]byte, error)
}

type pdfRenderer interface {
	Render(t export.Table, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       string
	ExpiresAt    time.Time
}

// ExportService renders a learner's dashboard status into a downloadable file
// and hands back a signed URL for it.
type ExportService struct {
	dashboard statusRenderer
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(dashboard statusRenderer, store fileStorage, signer *storage.SignedURLSigner, validate *validator.Validate, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		dashboard: dashboard,
		storage:   store,
		csv:       csv,
		pdf:       pdf,
		signer:    signer,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate renders the learner's current dashboard status in the requested
// format and stores the result for signed download.
func (s *ExportService) Generate(ctx context.Context, learnerID string, req dto.ExportRequest) (*ExportResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export request")
	}
	format := req.Format

	status, _, err := s.dashboard.RenderStatus(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	table := buildStatusTable(status)
	var payload []byte
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(table)
	case ExportFormatPDF:
		title := fmt.Sprintf("Dashboard Status %s", learnerID)
		payload, err = s.pdf.Render(table, title)
	default:
		err = fmt.Errorf("unsupported format %s", format)
	}
	if err != nil {
		return nil, err
	}

	filename := buildExportFilename(learnerID, format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(learnerID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata and returns its owner and path.
func (s *ExportService) ParseToken(token string, allowExpired bool) (learnerID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

// StartCleanup purges expired export files on the given interval until ctx is
// cancelled.
func (s *ExportService) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := s.Cleanup(0)
				if err != nil {
					s.logger.Warn("export cleanup failed", zap.Error(err))
					continue
				}
				if len(removed) > 0 {
					s.logger.Info("export cleanup removed files", zap.Int("count", len(removed)))
				}
			}
		}
	}()
}

func buildStatusTable(status *dto.DashboardStatusResponse) export.Table {
	rows := make([][]string, 0, len(status.Entries))
	for _, entry := range status.Entries {
		rows = append(rows, []string{
			entry.Enrollment.CourseID,
			string(entry.Enrollment.Mode),
			strconv.FormatBool(entry.ShowCoursewareLink),
			strconv.FormatBool(entry.CanUnenroll),
			strconv.FormatBool(entry.ShowEmailSettings),
			strconv.FormatBool(entry.EmailOptIn),
			strconv.FormatBool(entry.ShowRefundOption),
			strconv.FormatBool(entry.IsPaidCourse),
			strconv.FormatBool(entry.IsCourseBlocked),
			string(entry.Certificate.Status),
			string(entry.Credit.Eligibility),
			string(entry.Verification.State),
			strings.Join(entry.RelatedPrograms, ";"),
		})
	}
	return export.Table{
		Columns: []string{
			"Course ID", "Mode", "Courseware", "Can Unenroll", "Email Settings",
			"Email Opt-In", "Refundable", "Paid", "Blocked", "Certificate",
			"Credit", "Verification", "Programs",
		},
		Rows: rows,
	}
}

func buildExportFilename(learnerID, format string) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("dashboard_%s_%s.%s", sanitizeFilename(learnerID), timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
