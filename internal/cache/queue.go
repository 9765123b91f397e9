package cache

// QueueTypeFor maps an upstream queue id to its category.
func QueueTypeFor(queueID int) QueueType {
	switch queueID {
	case QueueIDSoloDuo:
		return QueueSoloDuo
	case QueueIDFlex:
		return QueueFlex
	case QueueIDARAM, QueueIDARAMMayhem:
		return QueueARAM
	default:
		return QueueOther
	}
}

// Label returns a short human label for the queue.
func (q QueueType) Label() string {
	switch q {
	case QueueSoloDuo:
		return "Solo/Duo"
	case QueueFlex:
		return "Flex"
	case QueueARAM:
		return "ARAM"
	default:
		return "Other"
	}
}
