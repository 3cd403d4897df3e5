package tasks

import (
	"log"

	"github.com/rollbar/rollbar-go"
)

// Reporter forwards swallowed background failures to an error tracker.
type Reporter interface {
	Report(task string, err error)
}

type nopReporter struct{}

func (nopReporter) Report(string, error) {}

type RollbarReporter struct{}

// NewRollbarReporter configures the global rollbar client. An empty token
// disables delivery.
func NewRollbarReporter(token, env string) *RollbarReporter {
	rollbar.SetToken(token)
	rollbar.SetEnvironment(env)
	rollbar.SetEnabled(token != "")
	if token == "" {
		log.Println("⚠️ ROLLBAR_TOKEN not set, background failures are only logged")
	}
	return &RollbarReporter{}
}

func (RollbarReporter) Report(task string, err error) {
	rollbar.Error(err, map[string]interface{}{"task": task})
}

// Flush waits for pending reports to be sent.
func (RollbarReporter) Flush() {
	rollbar.Wait()
}
