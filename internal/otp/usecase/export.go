package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/storage"
)

var exportHeader = []string{
	"id", "api_key_id", "recipient", "channel", "status", "failure_reason",
	"created_at", "sent_at", "delivered_at", "expires_at",
}

type ExportLogsInput struct {
	APIKeyID int64
	Status   string
}

type ExportLogsOutput struct {
	Key       string
	URL       string
	Rows      int
	ExpiresAt time.Time
}

// ExportLogs writes the account's attempts as CSV to object storage and returns
// a short-lived download link. Codes are never written.
func (s *Usecase) ExportLogs(ctx context.Context, in ExportLogsInput) (*ExportLogsOutput, error) {
	ctx, span := s.startSpan(ctx, "ExportLogs")
	defer span.End()

	clm, err := s.account(ctx)
	if err != nil {
		return nil, err
	}

	if s.storage == nil {
		return nil, goerror.NewBusiness("Log export is not enabled", goerror.CodeNotImplemented)
	}

	filter, err := logFilter(clm.AccountID, in.APIKeyID, in.Status)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, goerror.NewServer(err)
	}

	rows := 0
	if err := s.repoDB.EachAttempt(ctx, filter, func(a entity.Attempt) error {
		rows++
		return w.Write(exportRow(a))
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo stream otp attempts", "account_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, goerror.NewServer(err)
	}

	key := fmt.Sprintf("exports/%d/%s.csv", clm.AccountID, s.uuid.Generate())
	if _, err := s.storage.Put(ctx, key, &buf, storage.PutOptions{
		Size:        int64(buf.Len()),
		ContentType: "text/csv",
		Metadata:    map[string]string{"account-id": strconv.FormatInt(clm.AccountID, 10)},
	}); err != nil {
		slog.ErrorContext(ctx, "failed to upload otp log export", "account_id", clm.AccountID, "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	ttl := s.exportTTL()
	url, err := s.storage.PresignGet(ctx, key, ttl)
	if err != nil {
		slog.ErrorContext(ctx, "failed to presign otp log export", "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ExportLogsOutput{
		Key:       key,
		URL:       url,
		Rows:      rows,
		ExpiresAt: s.clock.Now().Add(ttl),
	}, nil
}

func exportRow(a entity.Attempt) []string {
	return []string{
		strconv.FormatInt(a.ID, 10),
		strconv.FormatInt(a.APIKeyID, 10),
		a.Recipient,
		a.Channel.String(),
		a.Status.String(),
		string(a.FailureReason),
		a.CreatedAt.UTC().Format(time.RFC3339),
		formatOptional(a.SentAt),
		formatOptional(a.DeliveredAt),
		a.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
