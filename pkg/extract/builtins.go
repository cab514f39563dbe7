// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// SPDX-License-Identifier: Apache-2.0

package extract

// builtinsTS is the set of built-in/global names excluded from CallRefs
// for TypeScript/JavaScript (§4.2 "Built-ins"): reduces noise from
// console/log-style calls and common global functions that are never
// user-defined symbols the resolver could meaningfully bind.
var builtinsTS = map[string]bool{
	"log": true, "warn": true, "error": true, "info": true, "debug": true,
	"parseInt": true, "parseFloat": true, "isNaN": true, "isFinite": true,
	"setTimeout": true, "setInterval": true, "clearTimeout": true, "clearInterval": true,
	"require": true, "fetch": true, "encodeURIComponent": true, "decodeURIComponent": true,
	"JSON": true, "stringify": true, "parse": true,
	"push": true, "pop": true, "map": true, "filter": true, "reduce": true, "forEach": true,
	"slice": true, "splice": true, "join": true, "includes": true, "indexOf": true,
	"toString": true, "valueOf": true, "hasOwnProperty": true,
	"assign": true, "freeze": true, "keys": true, "values": true, "entries": true,
}

// builtinsPy is the set of Python built-ins excluded from CallRefs
// (§4.2 "Built-ins": "Python's print, len, isinstance, common test/log
// method names").
var builtinsPy = map[string]bool{
	"print": true, "len": true, "isinstance": true, "issubclass": true,
	"range": true, "enumerate": true, "zip": true, "map": true, "filter": true,
	"sorted": true, "reversed": true, "sum": true, "min": true, "max": true,
	"abs": true, "round": true, "str": true, "int": true, "float": true, "bool": true,
	"list": true, "dict": true, "set": true, "tuple": true, "type": true,
	"super": true, "repr": true, "getattr": true, "setattr": true, "hasattr": true,
	"open": true, "iter": true, "next": true, "format": true,
	"assertEqual": true, "assertTrue": true, "assertFalse": true, "assertRaises": true,
	"debug": true, "info": true, "warning": true, "error": true, "critical": true,
}
