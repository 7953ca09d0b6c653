// Prompt construction for the two narrative call kinds. Both prompts demand
// pure-JSON responses; the openai and gemini generators additionally enable
// their SDK's JSON response mode.
package genai

import (
	"fmt"
	"strings"
)

// RecommendationSystemPrompt returns the system prompt for personalized
// course recommendations.
func RecommendationSystemPrompt(courseID int64) string {
	return fmt.Sprintf(`당신은 온라인 강좌 추천 전문가입니다.
사용자의 학습 목적과 강좌의 특성을 분석하여, 해당 강좌를 추천하는 개인화된 코멘트를 작성해야 합니다.

**작성 규칙**:
1. 사용자의 학습 목적을 면밀히 분석하여 그에 맞는 추천 이유를 제시
2. 강좌의 이론적 깊이, 실무 활용도, 난이도, 학습 기간 등을 고려
3. 추천 이유는 3-4문장으로 구체적이고 설득력 있게 작성
4. 핵심 포인트는 %d~%d개로 간결하게 정리
5. 반드시 JSON 형식으로만 응답

**응답 형식**:
{
  "course_id": %d,
  "course_name": "강좌명",
  "recommendation_reason": "이 강좌는... (3-4문장)",
  "key_points": ["포인트1", "포인트2", "포인트3"]
}`, MinKeyPoints, MaxKeyPoints, courseID)
}

// RecommendationUserPrompt returns the user prompt carrying the goal, the
// course profile, and its AI quality ratings.
func RecommendationUserPrompt(course CourseProfile, userGoal string) string {
	weeks := "N/A"
	if course.Weeks > 0 {
		weeks = fmt.Sprintf("%.0f", course.Weeks)
	}
	return fmt.Sprintf(`**사용자의 학습 목적**:
%s

**강좌 정보**:
- 강좌 ID: %d
- 강좌명: %s
- 교수자: %s
- 운영기관: %s
- 분류: %s > %s
- 총 주차: %s주

**AI 평가**:
- 이론적 깊이: %.1f/5.0
- 실무 활용도: %.1f/5.0
- 학습 난이도: %.1f/5.0
- 학습 기간: %.1f/5.0
- 강좌 요약: %s

위 정보를 바탕으로 사용자의 학습 목적에 맞춘 추천 코멘트를 JSON 형식으로 작성해주세요.`,
		userGoal,
		course.ID, course.Name,
		orNA(course.Instructor), orNA(course.OrgName),
		orNA(course.Category), orNA(course.Subcategory), weeks,
		course.TheoryRating, course.PracticalRating,
		course.DifficultyRating, course.DurationRating,
		orNA(course.Summary))
}

// ReviewSummarySystemPrompt returns the system prompt for review summaries.
func ReviewSummarySystemPrompt() string {
	return `당신은 온라인 강좌 리뷰 분석 전문가입니다.
여러 수강생의 리뷰를 종합하여 강좌의 핵심 정보를 요약하십시오.

[작성 규칙]
1. 리뷰에서 공통적으로 언급되는 장점과 단점을 중심으로 분석합니다.
2. 강좌의 전반적인 만족도와 주요 특징을 객관적으로 정리합니다.
3. summary는 반드시 3~4문장으로 작성합니다.
4. pros와 cons는 각각 2~3개 항목으로 작성합니다.
5. 추측이나 과장된 표현은 사용하지 않습니다.
6. 출력은 반드시 **순수 JSON**만 반환해야 합니다.
7. JSON 외의 설명, 문장, 코드블록은 절대 출력하지 마십시오.

**[응답 JSON 형식]**
{
  "review_summary": {
    "summary": "3~4문장 요약 텍스트",
    "pros": ["장점 1", "장점 2"],
    "cons": ["단점 1", "단점 2"]
  }
}`
}

// ReviewSummaryUserPrompt returns the user prompt carrying the sampled
// review texts. totalCount is the full qualifying-review count, which may
// exceed len(reviews).
func ReviewSummaryUserPrompt(courseName string, reviews []string, totalCount int) string {
	return fmt.Sprintf(`**강좌명**: %s

**수강생 리뷰** (총 %d개 중 %d개):
%s

위 리뷰들을 종합하여 강좌의 핵심 정보를 요약해주세요.`,
		courseName, totalCount, len(reviews),
		strings.Join(reviews, "\n---\n"))
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
