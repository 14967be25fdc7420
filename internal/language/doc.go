// Package language normalizes language codes and decides which source
// language a piece of recognized text is in.
//
// The code table maps ISO 639-1, ISO 639-2, and English word forms onto one
// another. Resolver maps an arbitrary detected code into the configured set of
// supported source languages, falling back to the default source language when
// the code is unmapped or undetermined. Detectors produce those codes: the
// script detector runs lingua's models locally over the supported languages
// (kanji-only text is split between Japanese and Chinese by Shift_JIS
// coverage and the kagome tokenizer), and the LLM detector asks an
// OpenAI-compatible endpoint.
package language
