package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shandysiswandi/freightbite/internal/freight/entity"
	"github.com/shandysiswandi/freightbite/internal/pkg/authz"
	"github.com/shandysiswandi/freightbite/internal/pkg/goerror"
	"github.com/shandysiswandi/freightbite/internal/pkg/storage"
)

const (
	exportPageSize         = 1_000
	defaultExportURLExpiry = 15 * time.Minute
)

var exportHeader = []string{
	"id", "user_id", "phone_number",
	"source_address", "source_lat", "source_lng",
	"destination_address", "destination_lat", "destination_lng",
	"distance_km", "weight_kg", "calculated_price", "status", "created_at",
}

type AdminRequestExportOutput struct {
	URL       string
	Key       string
	Count     int
	ExpiresAt time.Time
}

// AdminRequestExport writes every request to a CSV object and returns a
// time-limited download link.
func (s *Usecase) AdminRequestExport(ctx context.Context) (*AdminRequestExportOutput, error) {
	ctx, span := s.startSpan(ctx, "AdminRequestExport")
	defer span.End()

	auth, err := s.authenticatedAndAuthorized(ctx, authz.ObjectFreightRequests, authz.ActRead)
	if err != nil {
		return nil, err
	}

	bucket := strings.TrimSpace(s.cfg.GetString("modules.freight.export.bucket"))
	if s.storage == nil || bucket == "" {
		return nil, goerror.NewBusiness("Export storage is not configured", goerror.CodeUnavailable)
	}

	var (
		buf   bytes.Buffer
		count int
	)
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, goerror.NewServer(err)
	}

	for offset := 0; ; offset += exportPageSize {
		reqs, err := s.repoDB.ListRequests(ctx, entity.ListFilter{Limit: exportPageSize, Offset: offset})
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo export freight requests", "error", err)
			return nil, goerror.NewServer(err)
		}

		for _, r := range reqs {
			if err := w.Write(exportRecord(r)); err != nil {
				return nil, goerror.NewServer(err)
			}
		}
		count += len(reqs)

		if len(reqs) < exportPageSize {
			break
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	key := fmt.Sprintf("freight/exports/%s/%s.csv", now.UTC().Format("2006/01/02"), s.uuid.Generate())

	_, err = s.storage.PutObject(ctx, bucket, key, &buf, storage.PutOptions{
		Size:        int64(buf.Len()),
		ContentType: "text/csv",
		Metadata:    map[string]string{"exported_by": strconv.FormatInt(auth.UserID, 10)},
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to upload freight export", "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	expiry := s.cfg.GetMinute("modules.freight.export.url_expiry_minutes")
	if expiry <= 0 {
		expiry = defaultExportURLExpiry
	}

	url, err := s.storage.PresignGet(ctx, bucket, key, expiry)
	if err != nil {
		slog.ErrorContext(ctx, "failed to presign freight export", "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &AdminRequestExportOutput{URL: url, Key: key, Count: count, ExpiresAt: now.Add(expiry)}, nil
}

func exportRecord(r entity.Request) []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

	return []string{
		strconv.FormatInt(r.ID, 10),
		strconv.FormatInt(r.UserID, 10),
		r.PhoneNumber,
		r.SourceAddress,
		f(r.SourceLat),
		f(r.SourceLng),
		r.DestinationAddress,
		f(r.DestinationLat),
		f(r.DestinationLng),
		f(r.DistanceKM),
		f(r.WeightKG),
		strconv.FormatInt(r.CalculatedPrice, 10),
		r.Status.String(),
		r.CreatedAt.UTC().Format(time.RFC3339),
	}
}
