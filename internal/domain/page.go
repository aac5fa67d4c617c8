package domain

import "strconv"

const (
	labelPrevious = "&laquo; Previous"
	labelNext     = "Next &raquo;"
	labelGap      = "..."
)

// PageLink is one pagination control.
type PageLink struct {
	URL    *string `json:"url"`
	Label  string  `json:"label"`
	Active bool    `json:"active"`
}

// TaskPage is one page of an owner's filtered tasks.
type TaskPage struct {
	Data        []*Task    `json:"data"`
	Total       int64      `json:"total"`
	PerPage     int        `json:"per_page"`
	CurrentPage int        `json:"current_page"`
	LastPage    int        `json:"last_page"`
	From        *int       `json:"from"`
	To          *int       `json:"to"`
	Links       []PageLink `json:"links"`
	Filters     TaskFilter `json:"filters"`
}

// TaskList is the full listing response.
type TaskList struct {
	Todos TaskPage  `json:"todos"`
	Stats TaskStats `json:"stats"`
}

// NewTaskPage fills the derived pagination fields.
func NewTaskPage(data []*Task, total int64, perPage, current int) TaskPage {
	if data == nil {
		data = []*Task{}
	}
	last := 1
	if perPage > 0 && total > 0 {
		last = int((total + int64(perPage) - 1) / int64(perPage))
	}
	p := TaskPage{
		Data:        data,
		Total:       total,
		PerPage:     perPage,
		CurrentPage: current,
		LastPage:    last,
	}
	if len(data) > 0 {
		from := (current-1)*perPage + 1
		to := from + len(data) - 1
		p.From, p.To = &from, &to
	}
	return p
}

// BuildLinks renders previous/pages/next controls. Long page ranges are
// collapsed around the first two, last two and current +-2 pages.
func (p *TaskPage) BuildLinks(urlFor func(page int) string) {
	link := func(page int, label string, active bool) PageLink {
		if page < 1 || page > p.LastPage {
			return PageLink{Label: label}
		}
		u := urlFor(page)
		return PageLink{URL: &u, Label: label, Active: active}
	}

	links := []PageLink{link(p.CurrentPage-1, labelPrevious, false)}
	prev := 0
	for _, n := range pageWindow(p.CurrentPage, p.LastPage) {
		if prev != 0 && n != prev+1 {
			links = append(links, PageLink{Label: labelGap})
		}
		links = append(links, link(n, strconv.Itoa(n), n == p.CurrentPage))
		prev = n
	}
	links = append(links, link(p.CurrentPage+1, labelNext, false))
	p.Links = links
}

func pageWindow(current, last int) []int {
	const full = 10
	var pages []int
	for n := 1; n <= last; n++ {
		if last <= full || n <= 2 || n > last-2 || (n >= current-2 && n <= current+2) {
			pages = append(pages, n)
		}
	}
	return pages
}
