package taskname

const (
	FeedbackSyncTask = "feedback:sync"
	InviteSweepTask  = "invite:sweep"
)
