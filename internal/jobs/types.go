package jobs

type JobType string

const (
	JobSendPasswordReset JobType = "send_password_reset"
)

// check to see if the job type is a known constant

func (t JobType) IsValid() bool {
	switch t {
	case JobSendPasswordReset:
		return true
	default:
		return false
	}
}
