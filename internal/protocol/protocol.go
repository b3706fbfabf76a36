// Package protocol defines the byte-level framing shared by the quiz server and
// its clients. Integers travel as big-endian uint16 values; text travels in
// fixed-width, NUL-padded buffers.
package protocol

// Field widths in bytes. A text field carries at most width-1 bytes so that
// the buffer is always NUL-terminated on the wire.
const (
	NicknameWidth = 16
	TextWidth     = 32
	QuestionWidth = 96
)

// Reserved strings accepted in place of a nickname or an answer.
const (
	ShowScore  = "show score"
	EndSession = "end session"
)

// Command codes sent by the client while browsing topics.
const (
	CmdEnd       uint16 = 0
	CmdShowScore uint16 = 1
	CmdTopicBase uint16 = 3
)

// Result codes sent after each answer.
const (
	ResultCorrect uint16 = 0
	ResultWrong   uint16 = 1
)

// Login acknowledgements.
const (
	AckRejected uint16 = 0
	AckAccepted uint16 = 1
)

// TopicCommand returns the command code selecting the zero-based topic index.
func TopicCommand(index int) uint16 {
	return CmdTopicBase + uint16(index)
}

// TopicIndex decodes a topic selection command. ok is false for codes below
// CmdTopicBase.
func TopicIndex(cmd uint16) (index int, ok bool) {
	if cmd < CmdTopicBase {
		return 0, false
	}
	return int(cmd - CmdTopicBase), true
}
