/* Copyright 2019 Comcast Cable Communications Management, LLC
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

// Package sio couples a core.Messaging to the outside world: catalog
// delivery (files, HTTP, MQTT) and exposure reporting.
package sio

import (
	"context"
)

// Couplings deliver catalogs into a Holder until stopped.
//
// For example, an implementation could subscribe to an MQTT topic
// and Set every catalog that arrives.
type Couplings interface {
	// Start initializes the Couplings.
	Start(context.Context) error

	// Stop shuts down the Couplings.
	Stop(context.Context) error
}
