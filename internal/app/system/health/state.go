// internal/app/system/health/state.go

// Package health diagnoses missing prerequisite data for a device
// session and maps each failure to exactly one recovery action. States
// are derived on every check and never persisted.
package health

// State is the outcome of one health check.
type State string

const (
	StateHealthy                  State = "healthy"
	StateMissingUserID            State = "missing_user_id"
	StateMissingUserData          State = "missing_user_data"
	StateMissingCompanyID         State = "missing_company_id"
	StateMissingCompanyData       State = "missing_company_data"
	StateSyncEngineNotInitialized State = "sync_engine_not_initialized"
	StateStoreUnavailable         State = "store_unavailable"
)

// ActionKind names a recovery action.
type ActionKind string

const (
	ActionNone                   ActionKind = "none"
	ActionLogout                 ActionKind = "logout"
	ActionFetchUser              ActionKind = "fetch_user"
	ActionFetchCompany           ActionKind = "fetch_company"
	ActionReturnToOnboarding     ActionKind = "return_to_onboarding"
	ActionReinitializeSyncEngine ActionKind = "reinitialize_sync_engine"
)

// OnboardingStepCompanyCode resumes onboarding at the company-code
// entry screen.
const OnboardingStepCompanyCode = "company_code"

// Action is the recovery the monitor chose for a state.
type Action struct {
	Kind           ActionKind `json:"kind"`
	OnboardingStep string     `json:"onboarding_step,omitempty"`
}

var (
	actionNone         = Action{Kind: ActionNone}
	actionLogout       = Action{Kind: ActionLogout}
	actionFetchUser    = Action{Kind: ActionFetchUser}
	actionFetchCompany = Action{Kind: ActionFetchCompany}
	actionReinitialize = Action{Kind: ActionReinitializeSyncEngine}
	actionOnboarding   = Action{Kind: ActionReturnToOnboarding, OnboardingStep: OnboardingStepCompanyCode}
)
