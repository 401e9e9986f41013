package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	logsTable     = "burnout_logs"
	eventsTable   = "llm_request_events"
	sequenceTable = "global_sequence"
)

var (
	logColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "session_id", Type: field.TypeString},
		{Name: "score", Type: field.TypeInt},
		{Name: "q1", Type: field.TypeInt},
		{Name: "q2", Type: field.TypeInt},
		{Name: "q3", Type: field.TypeInt},
		{Name: "q4", Type: field.TypeInt},
		{Name: "q5", Type: field.TypeInt},
		{Name: "q6", Type: field.TypeInt},
		{Name: "q7", Type: field.TypeInt},
		{Name: "mood_tag", Type: field.TypeString, Default: ""},
		{Name: "logged_at", Type: field.TypeTime},
	}
	logsTableDef = &schema.Table{
		Name:       logsTable,
		Columns:    logColumns,
		PrimaryKey: []*schema.Column{logColumns[0]},
		Indexes: []*schema.Index{
			{Name: "burnoutlog_session_id_logged_at", Columns: []*schema.Column{logColumns[2], logColumns[12]}},
		},
	}

	eventColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	eventsTableDef = &schema.Table{
		Name:       eventsTable,
		Columns:    eventColumns,
		PrimaryKey: []*schema.Column{eventColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{eventColumns[5]}},
		},
	}

	sequenceColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt},
		{Name: "next_val", Type: field.TypeInt64, Default: 1},
	}
	sequenceTableDef = &schema.Table{
		Name:       sequenceTable,
		Columns:    sequenceColumns,
		PrimaryKey: []*schema.Column{sequenceColumns[0]},
	}

	// Tables is every table the store migrates.
	Tables = []*schema.Table{logsTableDef, eventsTableDef, sequenceTableDef}
)
