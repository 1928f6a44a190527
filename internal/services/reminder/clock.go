package reminder

import (
	"time"

	"github.com/calmerhq/calmer/internal/domain/notification"
)

type SystemClock struct{}

var _ notification.Clock = SystemClock{}

func (SystemClock) Now() time.Time { return time.Now() }
