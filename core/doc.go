/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package core provides the core gear for catalog-driven message
// selection.  A Catalog is a snapshot of message definitions, styles,
// action aliases, trigger aliases and an experiment policy.  Each
// message also has Metadata (display count, dismissal state) that
// lives in an external MetadataStore.
//
// The primary type is Messaging, and the primary methods are
// ListEligibleMessages() and GetNextMessage().  The first resolves
// the current Catalog into Messages, drops the ones that have used up
// their display budget or were dismissed or pressed, and sorts the
// rest by descending priority.  The second walks that list and
// returns the first Message whose triggers all hold.
//
// Triggers are expressions that this package does not understand.
// Instead, a Platform creates a Helper that knows how to Evaluate
// them.  Evaluation results are memoized for the duration of a
// single GetNextMessage() call and never longer.  A trigger that
// fails to evaluate is false.
//
// Some messages are under experiment.  When such a message is
// selected, the ExposureRecorder hears about it.  A control message
// is a placebo: it's never shown.  Depending on the Catalog's
// OnControl policy, selection either falls back to the next eligible
// non-control message or returns nothing.
//
// Ideally the collaborators do not block for long.  This package
// performs no IO of its own, keeps no caches between calls, and does
// not retry.
package core
