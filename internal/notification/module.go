package notification

import (
	"context"
	"errors"

	"github.com/shandysiswandi/freightbite/internal/notification/inbound"
	"github.com/shandysiswandi/freightbite/internal/notification/outbound/sms"
	"github.com/shandysiswandi/freightbite/internal/notification/usecase"
	"github.com/shandysiswandi/freightbite/internal/pkg/config"
	"github.com/shandysiswandi/freightbite/internal/pkg/goroutine"
	"github.com/shandysiswandi/freightbite/internal/pkg/instrument"
	"github.com/shandysiswandi/freightbite/internal/pkg/messaging"
	pkgsms "github.com/shandysiswandi/freightbite/internal/pkg/sms"
	"github.com/shandysiswandi/freightbite/internal/pkg/uid"
	"github.com/shandysiswandi/freightbite/internal/pkg/validator"
)

type Dependency struct {
	Messaging  messaging.Consumer
	SMS        pkgsms.SMS
	Config     config.Config
	Instrument instrument.Instrumentation
	UUID       uid.StringID
	Goroutine  *goroutine.Manager
	Validator  validator.Validator
}

func New(ctx context.Context, dep Dependency) error {
	if dep.Messaging == nil {
		return errors.New("notification: messaging is required")
	}

	uc := usecase.New(usecase.Dependency{
		RepoSMS:    sms.New(dep.SMS, dep.Instrument),
		Validator:  dep.Validator,
		Instrument: dep.Instrument,
	})

	inbound.RegisterMQConsumer(ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)

	return nil
}
