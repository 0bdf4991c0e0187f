package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/otpgate/internal/billing"
	"github.com/shandysiswandi/otpgate/internal/identity"
	"github.com/shandysiswandi/otpgate/internal/otp"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.identity.enabled") {
		if err := identity.New(identity.Dependency{
			DBConn:     a.dbConn,
			Router:     a.router,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			HMAC:       a.hmac,
			Bcrypt:     a.bcrypt,
			Sealer:     a.sealer,
			Clock:      a.clock,
			Validator:  a.validator,
			JWT:        a.jwt,
		}); err != nil {
			slog.Error("failed to init module identity", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.otp.enabled") {
		if err := otp.New(otp.Dependency{
			DBConn:     a.dbConn,
			Router:     a.router,
			Messaging:  a.messaging,
			Mail:       a.mail,
			Sealer:     a.sealer,
			Storage:    a.storage,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			UUID:       a.uuid,
			Clock:      a.clock,
			Validator:  a.validator,
		}); err != nil {
			slog.Error("failed to init module otp", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.billing.enabled") {
		if err := billing.New(billing.Dependency{
			Ctx:         a.ctx,
			DBConn:      a.dbConn,
			Router:      a.router,
			Goroutine:   a.goroutine,
			Messaging:   a.messaging,
			Idempotency: a.idemp,
			Signer:      a.signer,
			Config:      a.config,
			Instrument:  a.ins,
			UID:         a.uid,
			UUID:        a.uuid,
			Clock:       a.clock,
			Validator:   a.validator,
		}); err != nil {
			slog.Error("failed to init module billing", "error", err)
			os.Exit(1)
		}
	}
}
