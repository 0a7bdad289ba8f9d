package core

// Window is an inclusive budget window [Start, End]. A window whose start is
// after its end is valid and simply matches nothing.
type Window struct {
	Start Date
	End   Date
}

func NewWindow(start, end Date) Window {
	return Window{Start: start, End: end}
}

// ParseWindow parses both bounds as YYYY-MM-DD. Malformed bounds are the only
// failure; a reversed window is returned as is.
func ParseWindow(start, end string) (Window, error) {
	s, err := ParseDate(start)
	if err != nil {
		return Window{}, &InvalidRangeError{Field: "start", Value: start, Err: err}
	}
	e, err := ParseDate(end)
	if err != nil {
		return Window{}, &InvalidRangeError{Field: "end", Value: end, Err: err}
	}
	return Window{Start: s, End: e}, nil
}

// MonthWindow covers the whole calendar month containing d.
func MonthWindow(d Date) Window {
	first := d.MonthStart()
	return Window{Start: first, End: Date{Time: first.AddDate(0, 1, -1)}}
}

// Empty reports whether no date can fall inside the window.
func (w Window) Empty() bool {
	return w.Start.After(w.End.Time)
}

func (w Window) Contains(d Date) bool {
	return !d.Before(w.Start.Time) && !d.After(w.End.Time)
}

func (w Window) String() string {
	return w.Start.String() + ".." + w.End.String()
}
