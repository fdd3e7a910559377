package scene

import "fmt"

// CommandKind is the type of a relocation command
type CommandKind int

const (
	// KindMount attaches new content to a container
	KindMount CommandKind = iota
	// KindUpdate swaps the payload and priority of attached content
	KindUpdate
	// KindUnmount detaches content from a container
	KindUnmount
)

func (k CommandKind) String() string {
	switch k {
	case KindMount:
		return "mount"
	case KindUpdate:
		return "update"
	case KindUnmount:
		return "unmount"
	default:
		return fmt.Sprintf("CommandKind(%d)", int(k))
	}
}

// Command is one relocation command addressed to a container
type Command struct {
	Kind        CommandKind
	ContainerID string
	Key         Key
	Priority    Priority
	Payload     any
}

// Entry returns the content carried by a mount or update command
func (c Command) Entry() Entry {
	return Entry{Key: c.Key, Priority: c.Priority, Payload: c.Payload}
}

func (c Command) String() string {
	if c.Kind == KindUnmount {
		return fmt.Sprintf("%s %s#%s", c.Kind, c.ContainerID, c.Key)
	}
	return fmt.Sprintf("%s %s#%s z=%s", c.Kind, c.ContainerID, c.Key, c.Priority)
}

// MountCmd builds a mount command
func MountCmd(id string, key Key, p Priority, payload any) Command {
	return Command{Kind: KindMount, ContainerID: id, Key: key, Priority: p, Payload: payload}
}

// UpdateCmd builds an update command
func UpdateCmd(id string, key Key, p Priority, payload any) Command {
	return Command{Kind: KindUpdate, ContainerID: id, Key: key, Priority: p, Payload: payload}
}

// UnmountCmd builds an unmount command
func UnmountCmd(id string, key Key) Command {
	return Command{Kind: KindUnmount, ContainerID: id, Key: key}
}

// NotUnmountByKey matches queued mount or update commands for key
func NotUnmountByKey(key Key) func(Command) bool {
	return func(c Command) bool {
		return c.Key == key && c.Kind != KindUnmount
	}
}

// ApplyTo runs the command against a table. It returns false when an update
// or unmount referenced a key the table does not hold.
func (c Command) ApplyTo(t *Table) bool {
	switch c.Kind {
	case KindMount:
		t.Insert(c.Entry())
		return true
	case KindUpdate:
		return t.Replace(c.Key, c.Entry())
	case KindUnmount:
		return t.Remove(c.Key)
	default:
		return false
	}
}
