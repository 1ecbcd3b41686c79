// Package dedupe remembers recently seen form submission ids so a task form
// that is posted twice (double click, browser resubmit) creates one task.
package dedupe
