package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/freightbite/internal/pkg/instrument"
	"github.com/shandysiswandi/freightbite/internal/pkg/sms"
	"github.com/shandysiswandi/freightbite/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoSMS interface {
	Send(ctx context.Context, phone, text string) error
}

type Usecase struct {
	repoSMS   repoSMS
	validator validator.Validator
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoSMS    repoSMS
	Validator  validator.Validator
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoSMS:   dep.RepoSMS,
		validator: dep.Validator,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}

// send returns nil for permanent provider rejections so the broker does not
// redeliver a message that can never succeed.
func (s *Usecase) send(ctx context.Context, phone, text string) error {
	err := s.repoSMS.Send(ctx, phone, text)
	if errors.Is(err, sms.ErrRejected) {
		slog.WarnContext(ctx, "sms rejected by provider, dropping", "phone", sms.MaskPhone(phone), "error", err)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to send sms", "phone", sms.MaskPhone(phone), "error", err)
		return err
	}

	return nil
}
