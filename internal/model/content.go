package model

import "fmt"

// ContentType identifies a kind of AI-generated workspace content.
type ContentType string

const (
	ContentRoadmap    ContentType = "roadmap"
	ContentTask       ContentType = "task"
	ContentDeployment ContentType = "deployment"
	ContentPRD        ContentType = "prd"
)

// ListContentTypes are the content types generated as record lists.
// PRDs are generated as free text and are not part of this set.
var ListContentTypes = []ContentType{
	ContentRoadmap,
	ContentTask,
	ContentDeployment,
}

// Label returns the human-readable singular label used when a generated
// record has no title of its own (e.g. "Task 3").
func (c ContentType) Label() string {
	switch c {
	case ContentRoadmap:
		return "Roadmap Item"
	case ContentTask:
		return "Task"
	case ContentDeployment:
		return "Deployment Step"
	case ContentPRD:
		return "PRD"
	default:
		return string(c)
	}
}

// IsList reports whether c is generated as a list of records.
func (c ContentType) IsList() bool {
	for _, ct := range ListContentTypes {
		if ct == c {
			return true
		}
	}
	return false
}

// ParseContentType converts a user-supplied string (CLI argument, URL
// segment) into a ContentType. Plural forms are accepted.
func ParseContentType(s string) (ContentType, error) {
	switch s {
	case "roadmap", "roadmaps":
		return ContentRoadmap, nil
	case "task", "tasks":
		return ContentTask, nil
	case "deployment", "deployments", "checklist":
		return ContentDeployment, nil
	case "prd":
		return ContentPRD, nil
	default:
		return "", fmt.Errorf("unknown content type %q", s)
	}
}

// Record is a validated generated record. It is implemented only by
// RoadmapItem, TaskItem and DeploymentItem.
type Record interface {
	ContentType() ContentType
	GetTitle() string
	GetPosition() int

	isRecord()
}

func (RoadmapItem) ContentType() ContentType    { return ContentRoadmap }
func (TaskItem) ContentType() ContentType       { return ContentTask }
func (DeploymentItem) ContentType() ContentType { return ContentDeployment }

func (r RoadmapItem) GetTitle() string    { return r.Title }
func (t TaskItem) GetTitle() string       { return t.Title }
func (d DeploymentItem) GetTitle() string { return d.Title }

func (r RoadmapItem) GetPosition() int    { return r.Position }
func (t TaskItem) GetPosition() int       { return t.Position }
func (d DeploymentItem) GetPosition() int { return d.Position }

func (RoadmapItem) isRecord()    {}
func (TaskItem) isRecord()       {}
func (DeploymentItem) isRecord() {}
