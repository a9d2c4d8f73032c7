package model

import "time"

// DeploymentCategory groups checklist items by concern.
type DeploymentCategory string

const (
	CategoryGeneral        DeploymentCategory = "general"
	CategoryEnvironment    DeploymentCategory = "environment"
	CategorySecurity       DeploymentCategory = "security"
	CategoryPerformance    DeploymentCategory = "performance"
	CategoryMonitoring     DeploymentCategory = "monitoring"
	CategoryDatabase       DeploymentCategory = "database"
	CategoryTesting        DeploymentCategory = "testing"
	CategoryDocumentation  DeploymentCategory = "documentation"
	CategoryInfrastructure DeploymentCategory = "infrastructure"
	CategoryCICD           DeploymentCategory = "ci_cd"
)

// DeploymentCategories lists every valid category.
var DeploymentCategories = []DeploymentCategory{
	CategoryGeneral,
	CategoryEnvironment,
	CategorySecurity,
	CategoryPerformance,
	CategoryMonitoring,
	CategoryDatabase,
	CategoryTesting,
	CategoryDocumentation,
	CategoryInfrastructure,
	CategoryCICD,
}

// Valid reports whether c is a known category.
func (c DeploymentCategory) Valid() bool {
	for _, v := range DeploymentCategories {
		if v == c {
			return true
		}
	}
	return false
}

// DeploymentPlatform is the hosting target a checklist item applies to.
type DeploymentPlatform string

const (
	PlatformGeneral DeploymentPlatform = "general"
	PlatformVercel  DeploymentPlatform = "vercel"
	PlatformNetlify DeploymentPlatform = "netlify"
	PlatformAWS     DeploymentPlatform = "aws"
	PlatformGCP     DeploymentPlatform = "gcp"
	PlatformAzure   DeploymentPlatform = "azure"
	PlatformHeroku  DeploymentPlatform = "heroku"
	PlatformRailway DeploymentPlatform = "railway"
	PlatformDocker  DeploymentPlatform = "docker"
)

// DeploymentPlatforms lists every valid platform.
var DeploymentPlatforms = []DeploymentPlatform{
	PlatformGeneral,
	PlatformVercel,
	PlatformNetlify,
	PlatformAWS,
	PlatformGCP,
	PlatformAzure,
	PlatformHeroku,
	PlatformRailway,
	PlatformDocker,
}

// Valid reports whether p is a known platform.
func (p DeploymentPlatform) Valid() bool {
	for _, v := range DeploymentPlatforms {
		if v == p {
			return true
		}
	}
	return false
}

// Environment is a deployment stage.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Valid reports whether e is a known environment.
func (e Environment) Valid() bool {
	switch e {
	case EnvDevelopment, EnvStaging, EnvProduction:
		return true
	}
	return false
}

// DeploymentStatus is the completion state of a checklist item.
type DeploymentStatus string

const (
	DeploymentTodo          DeploymentStatus = "todo"
	DeploymentInProgress    DeploymentStatus = "in_progress"
	DeploymentDone          DeploymentStatus = "done"
	DeploymentBlocked       DeploymentStatus = "blocked"
	DeploymentNotApplicable DeploymentStatus = "not_applicable"
)

// Valid reports whether s is a known deployment status.
func (s DeploymentStatus) Valid() bool {
	switch s {
	case DeploymentTodo, DeploymentInProgress, DeploymentDone,
		DeploymentBlocked, DeploymentNotApplicable:
		return true
	}
	return false
}

// DeploymentPriority is the importance of a checklist item.
type DeploymentPriority string

const (
	DeploymentPriorityLow      DeploymentPriority = "low"
	DeploymentPriorityMedium   DeploymentPriority = "medium"
	DeploymentPriorityHigh     DeploymentPriority = "high"
	DeploymentPriorityCritical DeploymentPriority = "critical"
)

// Valid reports whether p is a known deployment priority.
func (p DeploymentPriority) Valid() bool {
	switch p {
	case DeploymentPriorityLow, DeploymentPriorityMedium,
		DeploymentPriorityHigh, DeploymentPriorityCritical:
		return true
	}
	return false
}

// HelpfulLink points at documentation relevant to a checklist item.
type HelpfulLink struct {
	Title       string `json:"title" yaml:"title"`
	URL         string `json:"url" yaml:"url"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// DeploymentItem is one entry of a project's deployment checklist.
type DeploymentItem struct {
	ID                string             `json:"id,omitempty" db:"id" yaml:"id,omitempty"`
	ProjectID         string             `json:"project_id,omitempty" db:"project_id" yaml:"project_id,omitempty"`
	Title             string             `json:"title" db:"title" yaml:"title"`
	Description       string             `json:"description" db:"description" yaml:"description"`
	Category          DeploymentCategory `json:"category" db:"category" yaml:"category"`
	Platform          DeploymentPlatform `json:"platform" db:"platform" yaml:"platform"`
	Environment       Environment        `json:"environment" db:"environment" yaml:"environment"`
	Status            DeploymentStatus   `json:"status" db:"status" yaml:"status"`
	Priority          DeploymentPriority `json:"priority" db:"priority" yaml:"priority"`
	IsRequired        bool               `json:"is_required" db:"is_required" yaml:"is_required"`
	VerificationNotes string             `json:"verification_notes" db:"verification_notes" yaml:"verification_notes"`
	HelpfulLinks      LinkList           `json:"helpful_links" db:"helpful_links" yaml:"helpful_links"`
	Position          int                `json:"position" db:"position" yaml:"position"`
	CreatedAt         time.Time          `json:"created_at,omitzero" db:"created_at" yaml:"-"`
	UpdatedAt         time.Time          `json:"updated_at,omitzero" db:"updated_at" yaml:"-"`
}
