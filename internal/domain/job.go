package domain

// Job is one URL taken from an inbound message, carried through the
// dispatch, fetch and delivery pipeline.
type Job struct {
	URL       string
	Message   Message
	Mentioned bool
	Attempts  int
}

// NewJob creates a job for url found in msg.
func NewJob(msg Message, url string, mentioned bool) *Job {
	return &Job{
		URL:       url,
		Message:   msg,
		Mentioned: mentioned,
	}
}

// Target returns where replies for this job are sent.
func (j *Job) Target() ReplyTarget {
	return j.Message.ReplyTarget()
}

// CanRetry returns true if the job may be attempted again.
func (j *Job) CanRetry(maxAttempts int) bool {
	return j.Attempts < maxAttempts
}
