package session

// Decision is the outcome of a route-guard evaluation. Guards redirect or
// wait; they never panic.
type Decision int

const (
	// DecisionWait means the session is still unresolved: render nothing
	// yet, neither the protected content nor a login redirect
	DecisionWait Decision = iota

	// DecisionAllow means the view may render
	DecisionAllow

	// DecisionRedirectLogin means the user must authenticate first
	DecisionRedirectLogin

	// DecisionRedirectHome means the user is authenticated but lacks the
	// required role
	DecisionRedirectHome
)

func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionRedirectLogin:
		return "redirect-login"
	case DecisionRedirectHome:
		return "redirect-home"
	default:
		return "wait"
	}
}

// GuardProtected evaluates access to a view that requires authentication
func (m *Manager) GuardProtected() Decision {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateAuthenticated:
		return DecisionAllow
	case StateAnonymous:
		return DecisionRedirectLogin
	default:
		return DecisionWait
	}
}

// GuardAdmin evaluates access to a view that additionally requires the
// admin role
func (m *Manager) GuardAdmin() Decision {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateAuthenticated:
		if m.user != nil && m.user.IsAdmin() {
			return DecisionAllow
		}
		return DecisionRedirectHome
	case StateAnonymous:
		return DecisionRedirectLogin
	default:
		return DecisionWait
	}
}
