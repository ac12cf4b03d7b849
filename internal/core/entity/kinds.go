package entity

import (
	"insightsdb/internal/core/aggregate"
	"insightsdb/internal/core/predicate/render"
)

// Registered kinds
const (
	JobRuns     = "job_runs"
	Issues      = "issues"
	WorkItems   = "work_items"
	SonarIssues = "sonar_issues"
	TestCases   = "test_cases"
)

func init() {
	register(&Schema{
		Kind: JobRuns,
		Fields: []Field{
			{Name: "job_name", Kind: String, Sortable: true},
			{Name: "instance_name", Kind: String, Sortable: true},
			{Name: "project_name", Kind: String, Sortable: true},
			{Name: "job_status", Kind: String, Sortable: true},
			{Name: "cicd_user_id", Kind: String, Sortable: true},
			{Name: "trigger_type", Kind: String},
			{Name: "labels", Kind: List},
			{Name: "duration", Kind: Number, Sortable: true},
			{Name: "start_time", Kind: Time, Sortable: true},
			{Name: "end_time", Kind: Time, Sortable: true},
		},
		Dimensions: aggregate.Dimensions{
			"job_name":      {Kind: aggregate.Categorical, Field: "job_name"},
			"instance_name": {Kind: aggregate.Categorical, Field: "instance_name"},
			"project_name":  {Kind: aggregate.Categorical, Field: "project_name"},
			"job_status":    {Kind: aggregate.Categorical, Field: "job_status"},
			"cicd_user_id":  {Kind: aggregate.Categorical, Field: "cicd_user_id"},
			"trigger_type":  {Kind: aggregate.Categorical, Field: "trigger_type"},
			"labels":        {Kind: aggregate.List, Field: "labels"},
			"start_time":    {Kind: aggregate.Time, Field: "start_time"},
			"end_time":      {Kind: aggregate.Time, Field: "end_time"},
			"qualified_job_name": {
				Kind:            aggregate.Composite,
				Parts:           []string{"instance_name", "job_name"},
				Separator:       "/",
				AdditionalField: "instance_name",
			},
		},
		ValueFields: map[aggregate.Calculation]string{aggregate.Duration: "duration"},
		CHTable:     "job_runs",
		CHColumns: render.Columns{
			"id":            {Expr: "id", Kind: render.Text},
			"job_name":      {Expr: "job_name", Kind: render.Text},
			"instance_name": {Expr: "instance_name", Kind: render.Text},
			"project_name":  {Expr: "project_name", Kind: render.Text},
			"job_status":    {Expr: "job_status", Kind: render.Text},
			"cicd_user_id":  {Expr: "cicd_user_id", Kind: render.Text},
			"trigger_type":  {Expr: "trigger_type", Kind: render.Text},
			"labels":        {Expr: "labels", Kind: render.TextArray},
			"duration":      {Expr: "duration", Kind: render.Number},
			"start_time":    {Expr: "start_time", Kind: render.Time},
			"end_time":      {Expr: "end_time", Kind: render.Time},
		},
	})

	register(&Schema{
		Kind: Issues,
		Fields: []Field{
			{Name: "key", Kind: String, Sortable: true},
			{Name: "integration_id", Kind: String},
			{Name: "project", Kind: String, Sortable: true},
			{Name: "status", Kind: String, Sortable: true},
			{Name: "status_category", Kind: String, Sortable: true},
			{Name: "issue_type", Kind: String, Sortable: true},
			{Name: "priority", Kind: String, Sortable: true},
			{Name: "assignee", Kind: String, Sortable: true},
			{Name: "reporter", Kind: String, Sortable: true},
			{Name: "epic", Kind: String, Sortable: true},
			{Name: "labels", Kind: List},
			{Name: "components", Kind: List},
			{Name: "fix_versions", Kind: List},
			{Name: "sprints", Kind: List},
			{Name: "story_points", Kind: Number, Sortable: true},
			// seconds from creation to resolution, set at ingestion
			{Name: "resolution_time", Kind: Number, Sortable: true},
			{Name: "issue_created_at", Kind: Time, Sortable: true},
			{Name: "issue_updated_at", Kind: Time, Sortable: true},
			{Name: "issue_resolved_at", Kind: Time, Sortable: true},
			{Name: "ingested_at", Kind: Time},
		},
		Dimensions: aggregate.Dimensions{
			"project":         {Kind: aggregate.Categorical, Field: "project"},
			"status":          {Kind: aggregate.Categorical, Field: "status"},
			"status_category": {Kind: aggregate.Categorical, Field: "status_category"},
			"issue_type":      {Kind: aggregate.Categorical, Field: "issue_type"},
			"priority":        {Kind: aggregate.Categorical, Field: "priority"},
			"assignee":        {Kind: aggregate.Categorical, Field: "assignee"},
			"reporter":        {Kind: aggregate.Categorical, Field: "reporter"},
			"epic":            {Kind: aggregate.Categorical, Field: "epic"},
			"label":           {Kind: aggregate.List, Field: "labels"},
			"component":       {Kind: aggregate.List, Field: "components"},
			"fix_version":     {Kind: aggregate.List, Field: "fix_versions"},
			"sprint":          {Kind: aggregate.List, Field: "sprints"},
			"issue_created":   {Kind: aggregate.Time, Field: "issue_created_at"},
			"issue_updated":   {Kind: aggregate.Time, Field: "issue_updated_at"},
			"issue_resolved":  {Kind: aggregate.Time, Field: "issue_resolved_at"},
			"ticket_category": {Kind: aggregate.Category},
			"project_epic":    {Kind: aggregate.Composite, Parts: []string{"project", "epic"}, Separator: "/"},
		},
		ValueFields: map[aggregate.Calculation]string{
			aggregate.StoryPoints: "story_points",
			aggregate.Duration:    "resolution_time",
		},
		Categorized: true,
		Rollup:      "story_points",
	})

	register(&Schema{
		Kind: WorkItems,
		Fields: []Field{
			{Name: "workitem_id", Kind: String, Sortable: true},
			{Name: "integration_id", Kind: String},
			{Name: "project", Kind: String, Sortable: true},
			{Name: "status", Kind: String, Sortable: true},
			{Name: "workitem_type", Kind: String, Sortable: true},
			{Name: "priority", Kind: String, Sortable: true},
			{Name: "assignee", Kind: String, Sortable: true},
			{Name: "reporter", Kind: String, Sortable: true},
			{Name: "epic", Kind: String, Sortable: true},
			{Name: "area_path", Kind: String, Sortable: true},
			{Name: "labels", Kind: List},
			{Name: "story_points", Kind: Number, Sortable: true},
			{Name: "workitem_created_at", Kind: Time, Sortable: true},
			{Name: "workitem_updated_at", Kind: Time, Sortable: true},
			{Name: "workitem_resolved_at", Kind: Time, Sortable: true},
			{Name: "ingested_at", Kind: Time},
		},
		Dimensions: aggregate.Dimensions{
			"project":           {Kind: aggregate.Categorical, Field: "project"},
			"status":            {Kind: aggregate.Categorical, Field: "status"},
			"workitem_type":     {Kind: aggregate.Categorical, Field: "workitem_type"},
			"priority":          {Kind: aggregate.Categorical, Field: "priority"},
			"assignee":          {Kind: aggregate.Categorical, Field: "assignee"},
			"reporter":          {Kind: aggregate.Categorical, Field: "reporter"},
			"epic":              {Kind: aggregate.Categorical, Field: "epic"},
			"area_path":         {Kind: aggregate.Categorical, Field: "area_path"},
			"label":             {Kind: aggregate.List, Field: "labels"},
			"workitem_created":  {Kind: aggregate.Time, Field: "workitem_created_at"},
			"workitem_updated":  {Kind: aggregate.Time, Field: "workitem_updated_at"},
			"workitem_resolved": {Kind: aggregate.Time, Field: "workitem_resolved_at"},
			"ticket_category":   {Kind: aggregate.Category},
		},
		ValueFields: map[aggregate.Calculation]string{aggregate.StoryPoints: "story_points"},
		Categorized: true,
		Rollup:      "story_points",
	})

	register(&Schema{
		Kind: SonarIssues,
		Fields: []Field{
			{Name: "project", Kind: String, Sortable: true},
			{Name: "organization", Kind: String, Sortable: true},
			{Name: "type", Kind: String, Sortable: true},
			{Name: "severity", Kind: String, Sortable: true},
			{Name: "status", Kind: String, Sortable: true},
			{Name: "author", Kind: String, Sortable: true},
			{Name: "component", Kind: String, Sortable: true},
			{Name: "tags", Kind: List},
			{Name: "effort", Kind: Number, Sortable: true},
			{Name: "debt", Kind: Number, Sortable: true},
			{Name: "creation_date", Kind: Time, Sortable: true},
			{Name: "update_date", Kind: Time, Sortable: true},
		},
		Dimensions: aggregate.Dimensions{
			"project":       {Kind: aggregate.Categorical, Field: "project"},
			"organization":  {Kind: aggregate.Categorical, Field: "organization"},
			"type":          {Kind: aggregate.Categorical, Field: "type"},
			"severity":      {Kind: aggregate.Categorical, Field: "severity"},
			"status":        {Kind: aggregate.Categorical, Field: "status"},
			"author":        {Kind: aggregate.Categorical, Field: "author"},
			"component":     {Kind: aggregate.Categorical, Field: "component"},
			"tag":           {Kind: aggregate.List, Field: "tags"},
			"creation_date": {Kind: aggregate.Time, Field: "creation_date"},
			"update_date":   {Kind: aggregate.Time, Field: "update_date"},
		},
		ValueFields: map[aggregate.Calculation]string{aggregate.Duration: "effort"},
	})

	register(&Schema{
		Kind: TestCases,
		Fields: []Field{
			{Name: "project", Kind: String, Sortable: true},
			{Name: "milestone", Kind: String, Sortable: true},
			{Name: "test_plan", Kind: String, Sortable: true},
			{Name: "test_run", Kind: String, Sortable: true},
			{Name: "status", Kind: String, Sortable: true},
			{Name: "priority", Kind: String, Sortable: true},
			{Name: "type", Kind: String, Sortable: true},
			{Name: "assignee", Kind: String, Sortable: true},
			{Name: "refs", Kind: List},
			{Name: "estimate", Kind: Number, Sortable: true},
			{Name: "elapsed", Kind: Number, Sortable: true},
			{Name: "created_on", Kind: Time, Sortable: true},
		},
		Dimensions: aggregate.Dimensions{
			"project":    {Kind: aggregate.Categorical, Field: "project"},
			"milestone":  {Kind: aggregate.Categorical, Field: "milestone"},
			"test_plan":  {Kind: aggregate.Categorical, Field: "test_plan"},
			"test_run":   {Kind: aggregate.Categorical, Field: "test_run"},
			"status":     {Kind: aggregate.Categorical, Field: "status"},
			"priority":   {Kind: aggregate.Categorical, Field: "priority"},
			"type":       {Kind: aggregate.Categorical, Field: "type"},
			"assignee":   {Kind: aggregate.Categorical, Field: "assignee"},
			"created_on": {Kind: aggregate.Time, Field: "created_on"},
		},
		ValueFields: map[aggregate.Calculation]string{aggregate.Duration: "elapsed"},
	})
}
