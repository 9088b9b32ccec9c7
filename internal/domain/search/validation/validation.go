package validation

// Response is the question-validation view: whether the query looks
// answerable and why. Produced by a stream independent of the main search.
type Response struct {
	Reasoning  *string `json:"reasoning"`
	Answerable *bool   `json:"answerable"`
	Error      *string `json:"error"`
}

// Default returns the initial, fully unset response.
func Default() Response {
	return Response{}
}

// Merge overlays the non-nil fields of p onto r.
func (r Response) Merge(p Response) Response {
	if p.Reasoning != nil {
		s := *p.Reasoning
		r.Reasoning = &s
	}
	if p.Answerable != nil {
		b := *p.Answerable
		r.Answerable = &b
	}
	if p.Error != nil {
		s := *p.Error
		r.Error = &s
	}
	return r
}

// Clone returns a copy that shares no pointers with r.
func (r Response) Clone() Response {
	return Default().Merge(r)
}
