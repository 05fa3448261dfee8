package analyzer

import "fmt"

// riskSystemInstruction primes the model for categorization. The
// taxonomy listed here must stay in lockstep with the domain package.
const riskSystemInstruction = `I'm compiling a reference guide for categorizing social media comments about a bank in Somalia. I need your help to categorize each comment.

I will provide you with social media comments that include Somali text and English translations. Please help me categorize them according to the structure below.

RISK CATEGORIES AND SUBCATEGORIES:

1. Operational Risk
   - Technical Failure: App crashes, UI/UX bugs, website login errors, server-side issues
   - Transaction Issue: Money debited but not received, remittance delays, failed transfers
   - Access & Identity: OTP (SMS) not arriving, blocked passwords, login authentication failures
   - System Downtime: "The whole system is down", "Bank is offline", widespread outages
   - Technical Support: Questions about how to use features, account setup, technical help requests

2. Reputational Risk
   - Customer Service: Rude staff, ignored support tickets, long wait times on phone or in-branch
   - Ethical & Trust: Allegations of corruption, unfair treatment, rumors of insolvency or scams
   - Fee Transparency: Complaints about "hidden" charges, unexplained commissions, high rates

3. Liquidity Risk
   - Withdrawal Limits: Unable to withdraw cash from ATMs or branches, daily limit restrictions
   - Market Panic: "Run on the bank" signals: "Take your money out now before they close!"
   - Currency Availability: Shortage of USD or local currency (common in the Somali context)

4. Security & Fraud
   - Phishing & Scams: Reports of fake WhatsApp groups, fraudulent SMS, or fake bank pages
   - Account Takeover: "My account was hacked", "Money disappeared without my knowledge"
   - Data Privacy: Concerns over leaked personal info or bank statements shared publicly
   - Safety: Concerns about physical safety, theft, security of transactions or cards

5. Compliance & Legal
   - Account Freezing: Accounts blocked due to AML/KYC checks, "Bank won't release my funds"
   - Regulatory/Sharia: Complaints regarding non-compliance with Islamic banking or local laws

6. General
   - Neutral: General positive or neutral comments, compliments, general questions
   - Spam/Neutral: Spam messages, irrelevant content, promotional content
   - Feedback: Feature requests, suggestions, general feedback without risk
   - Neutral (Competitor): Mentions of competitors without negative sentiment

RISK LEVELS:
- Low: Routine inquiries or minor dissatisfaction with no direct threat to the bank. Examples: General questions about branch hours, exchange rates, or simple feature requests.
- Medium: Individual service issues or isolated technical bugs. Examples: "I forgot my password", "The app is slow today", or complaints about a specific teller.
- High: Serious financial or technical issues affecting trust or money. Examples: Failed transactions, money missing from account, or allegations of fraud/scams.
- Critical: Systemic threats that could cause mass panic or widespread failure. Examples: App-wide outages, "Bank Run" calls (withdraw everything!), or confirmed security breaches.

Please help me categorize each comment by:
- Using EXACT category and subcategory names as listed above
- Matching the subcategory to the category correctly
- Choosing the most appropriate risk level based on severity
- If comment is neutral/spam/feedback without risk, use General category with appropriate subcategory and Low level

Please return your categorization in JSON format only, with these exact keys:
{
  "risk_category": "exact category name from above",
  "risk_subcategory": "exact subcategory name from above",
  "risk_level": "Low/Medium/High/Critical"
}

Return ONLY valid JSON, no other text.`

// translationSystemInstruction primes the model for the translation
// path, which returns a different JSON shape than categorization.
const translationSystemInstruction = "You are a finance support specialist in Somalia Bank. " +
	"You know English and Somali language. " +
	"You are helping the user to translate text from Somali to English, " +
	"You will be given a text and you will need to translate it to English and identify the threat level and confidence score. Keep answer short and concise." +
	"Keep answer in JSON format with: somali_text, english_text, threat_level, confidence_score."

// riskPrompt builds the per-comment categorization prompt. The
// instructions live in the system instruction; the prompt carries only
// the comment data.
func riskPrompt(somaliText, englishText string) string {
	return fmt.Sprintf(`Please help me categorize this comment for my reference guide:

Somali text: %s
English translation: %s

Please categorize it according to the structure I provided and return JSON format only.`, somaliText, englishText)
}
