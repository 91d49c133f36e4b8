package llm

// systemInstruction frames the model as a UX analyst comparing two releases.
const systemInstruction = `You are an expert UX analyst for web applications.
You receive aggregated web-analytics metrics for two releases of the same
product and compare them. Identify regressions in user experience: wandering
sessions, navigation loops, backward navigation, repeated page reloads and
longer sessions that suggest confusion rather than engagement.

Structure your answer in markdown with these sections:
## Summary
## Key Changes
## Problems
## Recommendations
## Conclusions

Be specific and reference the numbers you were given.`

// analysisPromptTemplate is filled by BuildAnalysisPrompt.
const analysisPromptTemplate = `Project: %s

## Release %s (%s — %s)
- Total visits: %d
- Unique clients: %d
- Total hits: %d
- New users: %d (%.1f%%)
- Returning users: %d (%.1f%%)
- Avg session duration: %.1f sec (median %d)
- Avg page views: %.2f (median %d)
%s
## Release %s (%s — %s)
- Total visits: %d
- Unique clients: %d
- Total hits: %d
- New users: %d (%.1f%%)
- Returning users: %d (%.1f%%)
- Avg session duration: %.1f sec (median %d)
- Avg page views: %.2f (median %d)
%s
## Changes
- Visits: %+d (%.1f%%)
- Avg duration: %+.1f sec
- Avg page views: %+.2f
%s%s`

// recommendationsPromptTemplate asks for a prioritized follow-up list.
const recommendationsPromptTemplate = `Based on your previous analysis, give concrete %s-priority recommendations
for improving the user experience. Return a numbered markdown list, most
important first, one actionable recommendation per item.`

// metricExplanationPromptTemplate asks the model to explain a single metric.
const metricExplanationPromptTemplate = `Explain the web-analytics metric "%s": what it measures, how it is
computed, and what changes in it usually indicate about user experience.%s`
