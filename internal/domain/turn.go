package domain

// Field - значение поля хода: либо присутствует, либо отсутствует.
// Нулевое значение Field означает Missing.
type Field struct {
	value   string
	present bool
}

// Present создает заполненное поле.
func Present(value string) Field {
	return Field{value: value, present: true}
}

// Missing создает отсутствующее поле.
func Missing() Field {
	return Field{}
}

// Value возвращает значение и признак наличия.
func (f Field) Value() (string, bool) {
	return f.value, f.present
}

// IsPresent сообщает, заполнено ли поле.
func (f Field) IsPresent() bool {
	return f.present
}

// String возвращает значение или пустую строку для Missing.
func (f Field) String() string {
	return f.value
}

// Turn - один ход истории: исход, ситуация и два варианта.
// Неполный Turn допустим и отображается как есть.
type Turn struct {
	outcome   Field
	situation Field
	options   []string
}

// MaxOptions - сколько вариантов выбора показывается игроку.
const MaxOptions = 2

// NewTurn собирает Turn. Лишние варианты отбрасываются, срез копируется.
func NewTurn(outcome, situation Field, options []string) Turn {
	if len(options) > MaxOptions {
		options = options[:MaxOptions]
	}
	var copied []string
	if len(options) > 0 {
		copied = make([]string, len(options))
		copy(copied, options)
	}
	return Turn{outcome: outcome, situation: situation, options: copied}
}

// Outcome возвращает исход предыдущего выбора.
func (t Turn) Outcome() Field { return t.outcome }

// Situation возвращает текущую ситуацию.
func (t Turn) Situation() Field { return t.situation }

// Options возвращает копию вариантов выбора (0..2).
func (t Turn) Options() []string {
	if len(t.options) == 0 {
		return nil
	}
	out := make([]string, len(t.options))
	copy(out, t.options)
	return out
}

// HasOptions сообщает, что модель вернула оба варианта.
func (t Turn) HasOptions() bool {
	return len(t.options) == MaxOptions
}

// Complete - есть ситуация и оба варианта, т.е. следующий ход можно показать полностью.
func (t Turn) Complete() bool {
	return t.situation.IsPresent() && t.HasOptions()
}

// Degraded - противоположность Complete.
func (t Turn) Degraded() bool {
	return !t.Complete()
}
