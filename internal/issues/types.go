package issues

// Issue is the subset of a GitHub issue that devdash reads.
type Issue struct {
	Number  int     `json:"number"`
	Title   string  `json:"title"`
	Body    string  `json:"body"`
	State   string  `json:"state"`
	HTMLURL string  `json:"html_url"`
	Labels  []Label `json:"labels"`

	// PullRequest is set when the number refers to a pull request.
	PullRequest *struct {
		URL string `json:"url"`
	} `json:"pull_request,omitempty"`
}

// IsPullRequest reports whether the issue is actually a pull request.
func (i Issue) IsPullRequest() bool {
	return i.PullRequest != nil
}

// Label is a GitHub issue label.
type Label struct {
	Name string `json:"name"`
}

// CreateIssueRequest is the body of POST /repos/{owner}/{repo}/issues.
type CreateIssueRequest struct {
	Title  string   `json:"title"`
	Body   string   `json:"body,omitempty"`
	Labels []string `json:"labels,omitempty"`
}

// User is the authenticated account returned by GET /user.
type User struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
}

// ErrorResponse is the error body GitHub returns on non-2xx responses.
type ErrorResponse struct {
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url"`
	Errors           []struct {
		Resource string `json:"resource"`
		Field    string `json:"field"`
		Code     string `json:"code"`
	} `json:"errors"`
}
