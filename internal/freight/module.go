package freight

import (
	"errors"

	"github.com/casbin/casbin/v3"
	"github.com/shandysiswandi/freightbite/internal/freight/inbound"
	"github.com/shandysiswandi/freightbite/internal/freight/outbound/db"
	"github.com/shandysiswandi/freightbite/internal/freight/outbound/mq"
	"github.com/shandysiswandi/freightbite/internal/freight/usecase"
	"github.com/shandysiswandi/freightbite/internal/pkg/clock"
	"github.com/shandysiswandi/freightbite/internal/pkg/config"
	"github.com/shandysiswandi/freightbite/internal/pkg/instrument"
	"github.com/shandysiswandi/freightbite/internal/pkg/messaging"
	"github.com/shandysiswandi/freightbite/internal/pkg/router"
	"github.com/shandysiswandi/freightbite/internal/pkg/storage"
	"github.com/shandysiswandi/freightbite/internal/pkg/uid"
	"github.com/shandysiswandi/freightbite/internal/pkg/validator"
	"gorm.io/gorm"
)

// Dependency wires the freight module. Messaging and Storage are optional:
// without them status events are not published and export is unavailable.
type Dependency struct {
	Messaging messaging.Publisher
	Storage   storage.Storage

	// gorm.DB refers back to itself through Statement.DB, so struct
	// validation must not walk into it.
	GormDB *gorm.DB `validate:"-"`

	Enforcer   casbin.IEnforcer           `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}
	if dep.GormDB == nil {
		return errors.New("freight: gorm database is required")
	}

	ucDep := usecase.Dependency{
		RepoDB:     db.NewDB(dep.GormDB, dep.Instrument),
		Storage:    dep.Storage,
		Validator:  dep.Validator,
		Config:     dep.Config,
		UID:        dep.UID,
		UUID:       dep.UUID,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
		Enforcer:   dep.Enforcer,
	}
	if dep.Messaging != nil {
		ucDep.RepoMessaging = mq.NewMessaging(dep.Messaging, dep.Instrument)
	}

	inbound.RegisterHTTPEndpoint(dep.Router, usecase.New(ucDep))

	return nil
}
