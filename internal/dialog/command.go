// Package dialog builds the AJAX command lists the admin UI executes,
// such as opening a modal dialog around server-rendered HTML.
package dialog

// ModalSelector is the element the modal dialog is rendered into.
const ModalSelector = "#drupal-modal"

// Options are the jQuery UI dialog options sent with an openDialog command.
type Options struct {
	Title string `json:"title"`
	Width string `json:"width,omitempty"`
	Modal bool   `json:"modal"`
}

// Command is one AJAX command.
type Command struct {
	Command       string   `json:"command"`
	Selector      string   `json:"selector,omitempty"`
	Settings      any      `json:"settings"`
	Data          string   `json:"data"`
	DialogOptions *Options `json:"dialogOptions,omitempty"`
}

// Response is the command list returned to the client, executed in order.
type Response []Command

// Add appends c to the response.
func (r *Response) Add(c Command) {
	*r = append(*r, c)
}

// OpenModal returns a command opening html in the modal dialog.
func OpenModal(title, html string, opts Options) Command {
	opts.Title = title
	opts.Modal = true
	return Command{
		Command:       "openDialog",
		Selector:      ModalSelector,
		Data:          html,
		DialogOptions: &opts,
	}
}
