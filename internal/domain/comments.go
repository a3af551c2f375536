package domain

// CommentCountState distinguishes a real count from the two ways a count can
// be missing.
type CommentCountState int

const (
	CommentCountPresent CommentCountState = iota
	CommentCountAbsent
	CommentCountTransportError
)

func (s CommentCountState) String() string {
	switch s {
	case CommentCountPresent:
		return "present"
	case CommentCountAbsent:
		return "absent"
	case CommentCountTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// CommentCount is the result of the comment-count lookup.
type CommentCount struct {
	State CommentCountState
	Value int64
	Err   error
}

func CommentsPresent(n int64) CommentCount {
	return CommentCount{State: CommentCountPresent, Value: n}
}

// CommentsAbsent means the video has no comments endpoint (404) or the
// endpoint did not report a count.
func CommentsAbsent() CommentCount {
	return CommentCount{State: CommentCountAbsent}
}

func CommentsFailed(err error) CommentCount {
	return CommentCount{State: CommentCountTransportError, Err: err}
}

// Stored is the value persisted in comments_count: nil unless present.
func (c CommentCount) Stored() *int64 {
	if c.State != CommentCountPresent {
		return nil
	}
	v := c.Value
	return &v
}

// ForRates is the value used in rate math: 0 unless present.
func (c CommentCount) ForRates() int64 {
	if c.State != CommentCountPresent {
		return 0
	}
	return c.Value
}
