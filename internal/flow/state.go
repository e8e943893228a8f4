package flow

import "errors"

// State: экран клиентского сценария. Переходы только вперед.
type State int

const (
	StateBill State = iota
	StateIntro
	StateFindBank
	StateShareData
)

func (s State) String() string {
	switch s {
	case StateBill:
		return "bill"
	case StateIntro:
		return "intro"
	case StateFindBank:
		return "find_bank"
	case StateShareData:
		return "share_data"
	default:
		return "unknown"
	}
}

var (
	ErrInvalidTransition = errors.New("flow: invalid transition")
	ErrUnknownBank       = errors.New("flow: bank is not in the fetched list")
	ErrConnectInProgress = errors.New("flow: connection already in progress")
	ErrClosed            = errors.New("flow: closed")
)

// BannerKind: цвет баннера на экране ShareData.
type BannerKind string

const (
	BannerSuccess BannerKind = "success"
	BannerError   BannerKind = "error"
)

type Banner struct {
	Kind BannerKind
	Text string
}
