package openproject

import (
	"strconv"
	"strings"
)

// Link is a HAL link: an href plus the human title of the linked
// resource. Most relationships in API v3 responses are expressed as
// links rather than embedded objects.
type Link struct {
	Href  string `json:"href,omitempty"`
	Title string `json:"title,omitempty"`
}

// ID extracts the numeric resource ID from the link href,
// e.g. "/api/v3/users/42" -> 42. Returns 0 when absent or non-numeric.
func (l *Link) ID() int {
	if l == nil || l.Href == "" {
		return 0
	}
	parts := strings.Split(strings.TrimSuffix(l.Href, "/"), "/")
	id, _ := strconv.Atoi(parts[len(parts)-1])
	return id
}

// TitleOr returns the link title, or def when the link is absent.
func (l *Link) TitleOr(def string) string {
	if l == nil || l.Title == "" {
		return def
	}
	return l.Title
}

// Formattable is a rich-text value, e.g. a description or comment.
type Formattable struct {
	Format string `json:"format,omitempty"`
	Raw    string `json:"raw"`
	HTML   string `json:"html,omitempty"`
}

// RawOr returns the raw text, or def when absent.
func (f *Formattable) RawOr(def string) string {
	if f == nil || f.Raw == "" {
		return def
	}
	return f.Raw
}

// collection is the HAL collection envelope.
type collection[T any] struct {
	Total    int `json:"total"`
	Count    int `json:"count"`
	PageSize int `json:"pageSize"`
	Offset   int `json:"offset"`
	Embedded struct {
		Elements []T `json:"elements"`
	} `json:"_embedded"`
}

// RootInfo is the API root document, used for connectivity checks.
type RootInfo struct {
	InstanceName string `json:"instanceName"`
	CoreVersion  string `json:"coreVersion"`
}

type Project struct {
	ID          int         `json:"id"`
	Identifier  string      `json:"identifier"`
	Name        string      `json:"name"`
	Active      bool        `json:"active"`
	Status      string      `json:"status,omitempty"`
	Description Formattable `json:"description"`
	CreatedAt   string      `json:"createdAt,omitempty"`
	UpdatedAt   string      `json:"updatedAt,omitempty"`
}

type WorkPackageLinks struct {
	Project  *Link `json:"project,omitempty"`
	Type     *Link `json:"type,omitempty"`
	Status   *Link `json:"status,omitempty"`
	Priority *Link `json:"priority,omitempty"`
	Assignee *Link `json:"assignee,omitempty"`
	Parent   *Link `json:"parent,omitempty"`
}

type WorkPackage struct {
	ID            int              `json:"id"`
	LockVersion   int              `json:"lockVersion"`
	Subject       string           `json:"subject"`
	Description   *Formattable     `json:"description,omitempty"`
	StartDate     string           `json:"startDate,omitempty"`
	DueDate       string           `json:"dueDate,omitempty"`
	EstimatedTime string           `json:"estimatedTime,omitempty"`
	DoneRatio     int              `json:"doneRatio,omitempty"`
	CreatedAt     string           `json:"createdAt,omitempty"`
	UpdatedAt     string           `json:"updatedAt,omitempty"`
	Links         WorkPackageLinks `json:"_links"`
}

type RelationLinks struct {
	From *Link `json:"from,omitempty"`
	To   *Link `json:"to,omitempty"`
}

type Relation struct {
	ID          int           `json:"id"`
	Type        string        `json:"type"`
	ReverseType string        `json:"reverseType,omitempty"`
	Description string        `json:"description,omitempty"`
	Lag         int           `json:"lag,omitempty"`
	Links       RelationLinks `json:"_links"`
}

type User struct {
	ID        int    `json:"id"`
	Login     string `json:"login,omitempty"`
	Name      string `json:"name"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Admin     bool   `json:"admin,omitempty"`
	Status    string `json:"status,omitempty"`
	Language  string `json:"language,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

type MembershipLinks struct {
	Project   *Link  `json:"project,omitempty"`
	Principal *Link  `json:"principal,omitempty"`
	Roles     []Link `json:"roles,omitempty"`
}

type Membership struct {
	ID        int             `json:"id"`
	CreatedAt string          `json:"createdAt,omitempty"`
	UpdatedAt string          `json:"updatedAt,omitempty"`
	Links     MembershipLinks `json:"_links"`
}

type Type struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Position    int    `json:"position,omitempty"`
	IsDefault   bool   `json:"isDefault,omitempty"`
	IsMilestone bool   `json:"isMilestone,omitempty"`
}

type Status struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Position   int    `json:"position,omitempty"`
	IsDefault  bool   `json:"isDefault,omitempty"`
	IsClosed   bool   `json:"isClosed,omitempty"`
	IsReadonly bool   `json:"isReadonly,omitempty"`
}

type Priority struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Position  int    `json:"position,omitempty"`
	IsDefault bool   `json:"isDefault,omitempty"`
	IsActive  bool   `json:"isActive,omitempty"`
}

// Activity is a time entry activity, e.g. Development or Testing.
// Active is a pointer: older instances omit the field, which means
// the activity is active.
type Activity struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position,omitempty"`
	Default  bool   `json:"default,omitempty"`
	Active   *bool  `json:"active,omitempty"`
}

// IsActive reports whether the activity can be logged against.
func (a *Activity) IsActive() bool {
	return a.Active == nil || *a.Active
}

type TimeEntryLinks struct {
	Project     *Link `json:"project,omitempty"`
	WorkPackage *Link `json:"workPackage,omitempty"`
	User        *Link `json:"user,omitempty"`
	Activity    *Link `json:"activity,omitempty"`
}

type TimeEntry struct {
	ID        int            `json:"id"`
	Hours     string         `json:"hours,omitempty"`
	SpentOn   string         `json:"spentOn,omitempty"`
	Comment   *Formattable   `json:"comment,omitempty"`
	CreatedAt string         `json:"createdAt,omitempty"`
	UpdatedAt string         `json:"updatedAt,omitempty"`
	Links     TimeEntryLinks `json:"_links"`
}

// linkRef is the write-side form of a HAL link.
type linkRef struct {
	Href string `json:"href"`
}

// ProjectCreate is the payload for creating a project.
type ProjectCreate struct {
	Name        string
	Description string
	// Status other than "active" is sent explicitly.
	Status string
}

func (p ProjectCreate) body() map[string]any {
	body := map[string]any{
		"name":        p.Name,
		"description": Formattable{Raw: p.Description},
	}
	if p.Status != "" && p.Status != "active" {
		body["status"] = p.Status
	}
	return body
}

// WorkPackageCreate is the payload for creating a work package.
// Zero TypeID/StatusID/PriorityID fall back to the OpenProject
// defaults (Task, New, Normal).
type WorkPackageCreate struct {
	ProjectID      int
	Subject        string
	Description    string
	TypeID         int
	StatusID       int
	PriorityID     int
	AssigneeID     int
	ParentID       int
	StartDate      string
	DueDate        string
	EstimatedHours float64
}

func (w WorkPackageCreate) body() map[string]any {
	typeID := w.TypeID
	if typeID == 0 {
		typeID = 1
	}
	statusID := w.StatusID
	if statusID == 0 {
		statusID = 1
	}
	priorityID := w.PriorityID
	if priorityID == 0 {
		priorityID = 2
	}

	links := map[string]linkRef{
		"project":  {Href: apiPath("projects", w.ProjectID)},
		"type":     {Href: apiPath("types", typeID)},
		"status":   {Href: apiPath("statuses", statusID)},
		"priority": {Href: apiPath("priorities", priorityID)},
	}
	if w.AssigneeID > 0 {
		links["assignee"] = linkRef{Href: apiPath("users", w.AssigneeID)}
	}
	if w.ParentID > 0 {
		links["parent"] = linkRef{Href: apiPath("work_packages", w.ParentID)}
	}

	body := map[string]any{
		"subject": w.Subject,
		"_links":  links,
	}
	if w.Description != "" {
		body["description"] = Formattable{Raw: w.Description}
	}
	if w.StartDate != "" {
		body["startDate"] = w.StartDate
	}
	if w.DueDate != "" {
		body["dueDate"] = w.DueDate
	}
	if w.EstimatedHours > 0 {
		body["estimatedTime"] = FormatHours(w.EstimatedHours)
	}
	return body
}

// WorkPackagePatch carries the fields to change on a work package.
// Nil fields are left untouched.
type WorkPackagePatch struct {
	Subject        *string
	Description    *string
	StartDate      *string
	DueDate        *string
	EstimatedHours *float64
	AssigneeID     *int
	StatusID       *int
	LockVersion    *int
}

// IsZero reports whether the patch changes nothing.
func (p WorkPackagePatch) IsZero() bool {
	return p.Subject == nil && p.Description == nil && p.StartDate == nil &&
		p.DueDate == nil && p.EstimatedHours == nil && p.AssigneeID == nil &&
		p.StatusID == nil
}

// needsLockVersion reports whether the patch touches plain attributes,
// which OpenProject guards with optimistic locking. Link-only updates
// (assignee, status) do not require it.
func (p WorkPackagePatch) needsLockVersion() bool {
	return p.Subject != nil || p.Description != nil || p.StartDate != nil ||
		p.DueDate != nil || p.EstimatedHours != nil
}

func (p WorkPackagePatch) body() map[string]any {
	body := map[string]any{}
	if p.Subject != nil {
		body["subject"] = *p.Subject
	}
	if p.Description != nil {
		body["description"] = Formattable{Raw: *p.Description}
	}
	if p.StartDate != nil {
		body["startDate"] = *p.StartDate
	}
	if p.DueDate != nil {
		body["dueDate"] = *p.DueDate
	}
	if p.EstimatedHours != nil {
		body["estimatedTime"] = FormatHours(*p.EstimatedHours)
	}
	links := map[string]linkRef{}
	if p.AssigneeID != nil {
		links["assignee"] = linkRef{Href: apiPath("users", *p.AssigneeID)}
	}
	if p.StatusID != nil {
		links["status"] = linkRef{Href: apiPath("statuses", *p.StatusID)}
	}
	if len(links) > 0 {
		body["_links"] = links
	}
	if p.LockVersion != nil {
		body["lockVersion"] = *p.LockVersion
	}
	return body
}

// RelationCreate is the payload for relating two work packages.
type RelationCreate struct {
	// FromID is the predecessor work package; the relation is created
	// under its /relations collection.
	FromID int
	// ToID is the target of the relation.
	ToID int
	// Type is one of follows, precedes, blocks, blocked, relates,
	// duplicates, duplicated.
	Type        string
	Description string
	// Lag is working days between finish of predecessor and start of
	// successor.
	Lag int
}

func (r RelationCreate) body() map[string]any {
	body := map[string]any{
		"type": r.Type,
		"_links": map[string]linkRef{
			"to": {Href: apiPath("work_packages", r.ToID)},
		},
	}
	if r.Description != "" {
		body["description"] = r.Description
	}
	if r.Lag != 0 {
		body["lag"] = r.Lag
	}
	return body
}

// TimeEntryCreate is the payload for logging time against a work
// package. Zero ActivityID falls back to activity 1.
type TimeEntryCreate struct {
	WorkPackageID int
	Hours         float64
	SpentOn       string
	Comment       string
	ActivityID    int
}

func (t TimeEntryCreate) body() map[string]any {
	activityID := t.ActivityID
	if activityID == 0 {
		activityID = 1
	}
	body := map[string]any{
		"hours":   FormatHours(t.Hours),
		"spentOn": t.SpentOn,
		"_links": map[string]linkRef{
			"workPackage": {Href: apiPath("work_packages", t.WorkPackageID)},
			"activity":    {Href: apiPath("time_entries/activities", activityID)},
		},
	}
	if t.Comment != "" {
		body["comment"] = Formattable{Raw: t.Comment}
	}
	return body
}

// TimeEntryPatch carries the fields to change on a time entry.
type TimeEntryPatch struct {
	Hours      *float64
	SpentOn    *string
	Comment    *string
	ActivityID *int
}

// IsZero reports whether the patch changes nothing.
func (p TimeEntryPatch) IsZero() bool {
	return p.Hours == nil && p.SpentOn == nil && p.Comment == nil && p.ActivityID == nil
}

func (p TimeEntryPatch) body() map[string]any {
	body := map[string]any{}
	if p.Hours != nil {
		body["hours"] = FormatHours(*p.Hours)
	}
	if p.SpentOn != nil {
		body["spentOn"] = *p.SpentOn
	}
	if p.Comment != nil {
		body["comment"] = Formattable{Raw: *p.Comment}
	}
	if p.ActivityID != nil {
		body["_links"] = map[string]linkRef{
			"activity": {Href: apiPath("time_entries/activities", *p.ActivityID)},
		}
	}
	return body
}

// TimeEntryFilter narrows time entry listings. Zero fields are
// omitted from the filter expression.
type TimeEntryFilter struct {
	WorkPackageID int
	ProjectID     int
	UserID        int
	// From and To bound spent_on, inclusive, as YYYY-MM-DD.
	From string
	To   string
}

func (f TimeEntryFilter) filters() Filters {
	var fs Filters
	if f.WorkPackageID > 0 {
		fs = append(fs, NewFilter("work_package", OpEquals, strconv.Itoa(f.WorkPackageID)))
	}
	if f.ProjectID > 0 {
		fs = append(fs, NewFilter("project", OpEquals, strconv.Itoa(f.ProjectID)))
	}
	if f.UserID > 0 {
		fs = append(fs, NewFilter("user", OpEquals, strconv.Itoa(f.UserID)))
	}
	if f.From != "" {
		fs = append(fs, NewFilter("spent_on", OpOnOrAfter, f.From))
	}
	if f.To != "" {
		fs = append(fs, NewFilter("spent_on", OpOnOrBefore, f.To))
	}
	return fs
}

// apiPath builds an API v3 resource href like /api/v3/users/42.
func apiPath(resource string, id int) string {
	return "/api/v3/" + resource + "/" + strconv.Itoa(id)
}
