// Package source loads policy documents from their configuration form.
//
// A policy document is a YAML file carrying a named, versioned rule set:
//
//	name: default
//	version: "2026-08"
//	rules:
//	  max_per_payment: 50000
//	  max_per_day: 200000
//	  max_per_week: 750000
//	  allowed_hours_start: 7
//	  allowed_hours_end: 20
//	  allowed_weekdays: [1, 2, 3, 4, 5]
//	  allowed_vendors: ["Acme Supplies"]
//	  category_limits:
//	    travel: 120000
//	  blocked_keywords: ["casino"]
//	  conditional_rules:
//	    - {type: 1, threshold: 40000, action: 3}
//	  min_ai_confidence: 70
//
// FileSource reads a single file or every .yaml/.yml file in a directory;
// MemorySource serves a fixed set for tests. Unknown YAML fields are
// rejected so a typo in a limit name cannot silently weaken a policy.
package source
