package ordering

type Kind int

const (
	MovePersisted Kind = iota + 1
	MoveReconciled
	MoveRejected
)

func (k Kind) String() string {
	switch k {
	case MovePersisted:
		return "persisted"
	case MoveReconciled:
		return "reconciled"
	case MoveRejected:
		return "rejected"
	}
	return "unknown"
}

// Notification describes how a move settled.
type Notification struct {
	Kind       Kind
	Collection string
	GroupID    string
	MovedID    string
	TargetID   string
	Sequence   []string // settled ids, after persistence or reconciliation
	Err        error
}

type Notifier interface {
	Notify(n Notification)
}

type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// Notifiers fans a notification out to every non nil notifier.
type Notifiers []Notifier

func (ns Notifiers) Notify(n Notification) {
	for _, notifier := range ns {
		if notifier != nil {
			notifier.Notify(n)
		}
	}
}
