package models

// Reminder состояние подтверждения напоминаний пользователя:
// название сервиса -> напоминание в текущем цикле уже отправлено.
type Reminder struct {
	user *User
	acks map[string]bool
}

// NewReminder строит состояние по сохранённым подтверждениям, ключом которых
// служит идентификатор подписки. Подписки без записи считаются неподтверждёнными.
func NewReminder(user *User, acksByID map[string]bool) (*Reminder, error) {
	r := &Reminder{user: user, acks: make(map[string]bool, len(user.Subscriptions))}
	for id, ack := range acksByID {
		s := user.SubscriptionByID(id)
		if s == nil {
			return nil, invalid("subscription", id, "reminder refers to an unknown subscription")
		}
		r.acks[s.ServiceName] = ack
	}
	for _, s := range user.Subscriptions {
		if _, ok := r.acks[s.ServiceName]; !ok {
			r.acks[s.ServiceName] = false
		}
	}
	return r, nil
}

// Acknowledged сообщает, отправлено ли напоминание для сервиса в текущем цикле.
func (r *Reminder) Acknowledged(serviceName string) bool {
	s := r.user.SubscriptionByName(serviceName)
	if s == nil {
		return false
	}
	return r.acks[s.ServiceName]
}

// Set меняет флаг подтверждения. Название должно принадлежать подписке пользователя.
func (r *Reminder) Set(serviceName string, ack bool) error {
	s := r.user.SubscriptionByName(serviceName)
	if s == nil {
		return invalid(FieldServiceName, serviceName, "no such subscription")
	}
	r.acks[s.ServiceName] = ack
	return nil
}

// Snapshot копия текущего состояния.
func (r *Reminder) Snapshot() map[string]bool {
	out := make(map[string]bool, len(r.acks))
	for k, v := range r.acks {
		out[k] = v
	}
	return out
}
