package natsbus

import "fmt"

// Topic patterns for bus events.

func TopicRunEvents(runID string) string {
	return fmt.Sprintf("events.run.%s", runID)
}

func TopicReviewEvents(reviewID string) string {
	return fmt.Sprintf("events.review.%s", reviewID)
}

const (
	TopicEventsAll    = "events.>"
	TopicEventsRun    = "events.run.*"
	TopicEventsReview = "events.review.*"
)
