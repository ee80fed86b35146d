// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package config provides a simple way to manage configuration files.

Use [Load](filename) to load a configuration from a specific filename, or [LoadFromBytes] when the contents have
already been read (for example from an embedded file system).

Use [SetGlobalConfig](filename) to set filename as the global config, and then [LoadGlobal]() to load the global config.

A config file should be in yaml format. The top-level fields can be any of the fields defined in the Config
struct type. The other fields are defined by the types of the fields of [Config] and nested struct types.
For example, a valid config file is as follows:

	options:
	  log-level: 4
	  object-sensitivity: 3
	  max-context-span: 65536
	no-context-classes:
	  - std.String
	entry-points:
	  - Main.main

# Context sensitivity

The object-sensitivity option is the depth k of the object-sensitive heap abstraction: an allocation is qualified
by the k-1 allocation sites of its enclosing receivers. A value of 0 turns object sensitivity off. The allocations of
the classes listed in no-context-classes, and of their subclasses, are never qualified.

The max-context-span option bounds the number of calling contexts the geometric encoding assigns to one method.
Methods reached through more contexts are encoded with the blocking scheme, which is coarser but never overflows.

# Logging

The log-level option sets the verbosity of the [LogGroup] built by [NewLogGroup], from 1 (errors only) to 5 (trace).
*/
package config
