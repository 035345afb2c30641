// Package action implements the post-validation actions a checkpoint runs
// for every validation: persisting results and evaluation parameters,
// rendering data docs, and sending Slack notifications.
//
// Actions are built from their descriptor (class_name plus parameters)
// through a Registry. Each run receives the validation result and returns
// a Result map whose "class" entry names the action class.
package action
