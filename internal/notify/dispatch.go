package notify

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Result is the delivery outcome of one channel.
type Result struct {
	Channel string
	Skipped bool
	Err     error
}

func (r Result) String() string {
	switch {
	case r.Skipped:
		return fmt.Sprintf("%s: skipped (%v)", r.Channel, r.Err)
	case r.Err != nil:
		return fmt.Sprintf("%s: failed (%v)", r.Channel, r.Err)
	}
	return fmt.Sprintf("%s: delivered", r.Channel)
}

// Dispatcher sends a message to every channel, one after the other.
type Dispatcher struct {
	notifiers []Notifier
}

func NewDispatcher(notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{notifiers: notifiers}
}

func (d *Dispatcher) Channels() []string {
	names := make([]string, 0, len(d.notifiers))
	for _, n := range d.notifiers {
		names = append(names, n.Name())
	}
	return names
}

// Dispatch makes a single delivery attempt per channel. Failures are logged
// and returned wrapped in ErrDeliveryFailure, they never stop the remaining
// channels.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *Message) []Result {
	if len(d.notifiers) == 0 {
		log.Warn("no notification channel configured, nothing to deliver")
		return nil
	}

	results := make([]Result, 0, len(d.notifiers))
	for _, n := range d.notifiers {
		res := Result{Channel: n.Name()}
		err := n.Send(ctx, msg)
		switch {
		case err == nil:
			log.Infof("notification delivered via %s", res.Channel)
		case errors.Is(err, ErrNoRecipient):
			res.Skipped = true
			res.Err = err
			log.Warnf("notification via %s skipped: %v", res.Channel, err)
		default:
			res.Err = errors.Wrapf(ErrDeliveryFailure, "%s: %v", res.Channel, err)
			log.WithError(err).Errorf("notification via %s failed, continuing", res.Channel)
		}
		results = append(results, res)
	}
	return results
}

// Delivered counts the channels that accepted the message.
func Delivered(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err == nil && !r.Skipped {
			n++
		}
	}
	return n
}
