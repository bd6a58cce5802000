package broadcast

import "errors"

var (
	ErrEncodeMessage = errors.New("broadcast: failed to encode message")
	ErrPublishFailed = errors.New("broadcast: failed to publish message")
)
