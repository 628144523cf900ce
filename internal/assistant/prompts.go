package assistant

const systemPrompt = `You are an email assistant that helps users manage their emails effectively.
Your role is to analyze email threads, understand context, and generate appropriate responses.
You should maintain professionalism while being helpful and concise.`

const threadAnalysisPrompt = `Analyze the following email thread and provide:
1. A brief summary of the conversation
2. The overall sentiment (positive/negative/neutral)
3. The urgency level (high/medium/low)
4. Key points that need to be addressed

Thread:
%s`

const sentimentPrompt = `Analyze the sentiment of the following text and classify it as:
- Positive
- Negative
- Neutral

Also identify the emotional tone (e.g., formal, casual, urgent, etc.)

Text:
%s`

const urgencyPrompt = `Analyze the following text and determine its urgency level:
- High: Requires immediate attention
- Medium: Important but not time-critical
- Low: Can be addressed when convenient

Consider:
- Time-sensitive language
- Requested actions
- Consequences of delay

Text:
%s`

const replyGenerationPrompt = `Based on the following email thread analysis, generate three different reply suggestions.

Thread Analysis:
%s

Format your response exactly as below:

Formal:
<your formal reply here>

Casual:
<your casual reply here>

Direct:
<your direct reply here>
`

const singleReplyPrompt = `Please generate a %[1]s reply to the following email thread:

%[2]s

Reply (%[1]s tone):`

const translatePrompt = `Translate the following text to %s.
Maintain the original tone and formatting.

Text:
%s

Translation:`

const detectLanguagePrompt = `Identify the language of the following text.
Answer with its two-letter ISO 639-1 code only.

Text:
%s

Language code:`
