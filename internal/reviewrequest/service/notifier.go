package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/reviewhub/reviewhub/internal/reviewrequest/model"
)

// Notifier receives publish events for fan-out to reviewers. The default
// implementation only logs; a mail or webhook sender can replace it.
type Notifier interface {
	ReviewRequestPublished(ctx context.Context, rr *model.ReviewRequest)
}

type logNotifier struct {
	logger *zap.SugaredLogger
}

// NewLogNotifier creates a notifier that records publish events in the log.
func NewLogNotifier(logger *zap.SugaredLogger) Notifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) ReviewRequestPublished(_ context.Context, rr *model.ReviewRequest) {
	recipients := make([]string, 0, len(rr.TargetPeople)+len(rr.TargetGroups))
	for i := range rr.TargetPeople {
		recipients = append(recipients, rr.TargetPeople[i].Username)
	}
	for i := range rr.TargetGroups {
		recipients = append(recipients, "group:"+rr.TargetGroups[i].Name)
	}
	n.logger.Infow("notifying reviewers",
		"review_request_id", rr.ID, "recipients", recipients)
}
