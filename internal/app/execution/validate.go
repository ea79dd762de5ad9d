package execution

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidateCompletion evaluates each of the ExecutableTask's validation
// criteria against the Result the Executor produced.
func ValidateCompletion(details Details, result Result, workspacePath string) []ValidationResult {
	if details.ExecutableTask == nil || len(details.ExecutableTask.ValidationCriteria) == 0 {
		return []ValidationResult{{Criterion: "execution_success", Passed: result.Success && result.Err == nil}}
	}

	out := make([]ValidationResult, 0, len(details.ExecutableTask.ValidationCriteria))
	for _, criterion := range details.ExecutableTask.ValidationCriteria {
		out = append(out, evaluateCriterion(criterion, result, workspacePath))
	}
	return out
}

func evaluateCriterion(criterion string, result Result, workspacePath string) ValidationResult {
	lower := strings.ToLower(criterion)

	switch {
	case strings.Contains(lower, "file") && strings.Contains(lower, "exist"):
		return validateFileExistence(criterion, result, workspacePath)
	case strings.Contains(lower, "yaml"):
		return validateYAMLSyntax(criterion, result)
	case strings.Contains(lower, "key") || strings.Contains(lower, "required"):
		return validateRequiredKeys(criterion, result)
	default:
		return ValidationResult{Criterion: criterion, Passed: result.Success && result.Err == nil, Detail: "default: execution outcome"}
	}
}

func validateFileExistence(criterion string, result Result, workspacePath string) ValidationResult {
	if len(result.ArtifactsCreated) == 0 {
		return ValidationResult{Criterion: criterion, Passed: false, Detail: "no artifacts were created"}
	}
	for _, artifact := range result.ArtifactsCreated {
		path := artifact
		if !filepath.IsAbs(path) {
			path = filepath.Join(workspacePath, path)
		}
		if _, err := os.Stat(path); err != nil {
			return ValidationResult{Criterion: criterion, Passed: false, Detail: "missing file: " + artifact}
		}
	}
	return ValidationResult{Criterion: criterion, Passed: true}
}

func validateYAMLSyntax(criterion string, result Result) ValidationResult {
	if result.FileContent == "" {
		return ValidationResult{Criterion: criterion, Passed: false, Detail: "no file content to validate"}
	}
	var v any
	if err := yaml.Unmarshal([]byte(result.FileContent), &v); err != nil {
		return ValidationResult{Criterion: criterion, Passed: false, Detail: "invalid yaml: " + err.Error()}
	}
	return ValidationResult{Criterion: criterion, Passed: true}
}

func validateRequiredKeys(criterion string, result Result) ValidationResult {
	keys := extractQuotedOrBareKeys(criterion)
	for _, key := range keys {
		if !strings.Contains(result.FileContent, key) {
			return ValidationResult{Criterion: criterion, Passed: false, Detail: "missing key: " + key}
		}
	}
	return ValidationResult{Criterion: criterion, Passed: true}
}

// bareKeyIdentifier matches a word-like token plausible as a key name:
// "api_base_url", "retry-count", "version".
var bareKeyIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// bareKeyStopwords are tokens that can immediately follow "key"/"keys"/
// "contains" without naming a key ("contains the key", "requires keys
// present").
var bareKeyStopwords = map[string]bool{
	"a": true, "an": true, "the": true, "key": true, "keys": true,
	"contains": true, "required": true, "present": true, "value": true,
	"values": true, "that": true, "is": true, "are": true, "must": true,
	"should": true, "of": true, "with": true,
}

// extractQuotedOrBareKeys pulls required key names out of a criterion
// string, both quoted (`requires keys "name" and "version"`) and bare
// (`contains key api_base_url`).
func extractQuotedOrBareKeys(criterion string) []string {
	var keys []string
	seen := make(map[string]bool)
	add := func(key string) {
		if key != "" && !seen[key] {
			keys = append(keys, key)
			seen[key] = true
		}
	}

	inQuote := false
	var quoted strings.Builder
	var unquoted strings.Builder
	for _, r := range criterion {
		if r == '"' {
			if inQuote {
				add(quoted.String())
				quoted.Reset()
			}
			inQuote = !inQuote
			unquoted.WriteRune(' ')
			continue
		}
		if inQuote {
			quoted.WriteRune(r)
		} else {
			unquoted.WriteRune(r)
		}
	}

	tokens := strings.Fields(unquoted.String())
	for i, tok := range tokens {
		word := strings.ToLower(strings.Trim(tok, ",.:;"))
		if word != "key" && word != "keys" && word != "contains" {
			continue
		}
		for j := i + 1; j < len(tokens); j++ {
			candidate := strings.Trim(tokens[j], ",.:;")
			lower := strings.ToLower(candidate)
			if lower == "and" || lower == "or" {
				continue
			}
			if bareKeyStopwords[lower] || !bareKeyIdentifier.MatchString(candidate) {
				break
			}
			add(candidate)
		}
	}
	return keys
}
