package session

type Screen string

const (
	Landing     Screen = "landing"
	Stage1      Screen = "stage1"
	Stage2      Screen = "stage2"
	Result      Screen = "result"
	Guide       Screen = "guide"
	Budget      Screen = "budget"
	Composition Screen = "composition"
	Checkout    Screen = "checkout"
)

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a one-shot message; Render hands each notice out once.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

const maxNotices = 8
