package service

import (
	"time"

	"salesledger/internal/lock"
	"salesledger/internal/repository"

	"github.com/sirupsen/logrus"
)

const defaultLockWait = 5 * time.Second

// Deps carries what every service needs. Zero-valued optional fields get defaults.
type Deps struct {
	Repos     *repository.Repositories
	Locker    lock.Locker
	Publisher EventPublisher
	Credit    *CreditEvaluator
	Logger    *logrus.Logger
	Now       func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Locker == nil {
		d.Locker = lock.NewLocalLocker(defaultLockWait)
	}
	if d.Publisher == nil {
		d.Publisher = NopPublisher{}
	}
	if d.Credit == nil {
		d.Credit = NewCreditEvaluator(DefaultEscalationBPS)
	}
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}
