package fallback

import (
	"strings"

	"github.com/codetrack/ai-gateway/services/providers"
)

// Name identifies the local fallback in Response.Provider fields
const Name = "local-fallback"

// Catalog produces deterministic local responses when every upstream provider
// has failed. Rendering never fails and involves no randomness: the same task
// kind (and prompt, for explanations) always yields the same text.
type Catalog struct{}

// NewCatalog creates a new fallback catalog
func NewCatalog() *Catalog {
	return &Catalog{}
}

// Render returns the canned response for a request
func (c *Catalog) Render(req *providers.Request) string {
	switch req.Kind {
	case providers.TaskStudyPlan:
		return studyPlanJSON
	case providers.TaskFlashcards:
		return flashcardsJSON
	case providers.TaskTutorExplanation:
		return c.renderExplanation(req.Prompt)
	default:
		if req.Format == providers.FormatJSON {
			return adviceJSON
		}
		return adviceText
	}
}

// renderExplanation picks a concept explanation by keyword, mirroring the
// topics the tutor most often sees
func (c *Catalog) renderExplanation(prompt string) string {
	p := strings.ToLower(prompt)
	switch {
	case strings.Contains(p, "linked list"):
		return linkedListExplanation
	case strings.Contains(p, "hash table") || strings.Contains(p, "hash map"):
		return hashTableExplanation
	case strings.Contains(p, "binary search"):
		return binarySearchExplanation
	case strings.Contains(p, "recursion"):
		return recursionExplanation
	default:
		return genericExplanation
	}
}

const studyPlanJSON = `{
  "week_1": {
    "focus": "Data Structures Fundamentals",
    "daily_tasks": ["Review arrays and linked lists", "Practice 2-3 easy problems", "Study time complexity"],
    "recommended_problems": ["Two Sum", "Remove Duplicates from Sorted Array"],
    "learning_resources": ["LeetCode Arrays section", "GeeksforGeeks Data Structures"]
  },
  "week_2": {
    "focus": "Algorithms - Sorting and Searching",
    "daily_tasks": ["Learn binary search", "Practice sorting algorithms", "Solve medium problems"],
    "recommended_problems": ["Binary Search", "Merge Sorted Array"],
    "learning_resources": ["Algorithm visualization tools", "Practice on HackerRank"]
  },
  "week_3": {
    "focus": "Dynamic Programming Basics",
    "daily_tasks": ["Understand memoization", "Practice simple DP problems", "Review problem patterns"],
    "recommended_problems": ["Climbing Stairs", "House Robber"],
    "learning_resources": ["DP pattern recognition guides", "YouTube DP tutorials"]
  },
  "week_4": {
    "focus": "System Design Concepts",
    "daily_tasks": ["Learn scalability basics", "Practice design questions", "Review case studies"],
    "recommended_problems": ["Design URL Shortener", "Design Chat System"],
    "learning_resources": ["System Design Primer", "High-level design examples"]
  },
  "tips": [
    "Practice consistently every day",
    "Focus on understanding, not just solving",
    "Review your solutions and optimize them",
    "Join study groups for motivation"
  ]
}`

const flashcardsJSON = `{
  "flashcards": [
    {
      "question": "What is time complexity?",
      "answer": "Time complexity measures how the runtime of an algorithm grows with input size. Common complexities: O(1), O(log n), O(n), O(n²).",
      "difficulty": "easy",
      "revision_frequency": "weekly"
    },
    {
      "question": "Explain Big O notation",
      "answer": "Big O describes the upper bound of algorithm performance. It helps compare efficiency and scalability of different approaches.",
      "difficulty": "medium",
      "revision_frequency": "biweekly"
    },
    {
      "question": "What is a hash table?",
      "answer": "A hash table stores key-value pairs with O(1) average lookup time. Uses hash function to map keys to array indices.",
      "difficulty": "medium",
      "revision_frequency": "weekly"
    }
  ],
  "total_cards": 3,
  "suggested_study_schedule": "weekly"
}`

const adviceJSON = `{
  "advice": "Focus on consistent daily practice and understanding fundamentals",
  "action_items": [
    "Set aside 1-2 hours daily for coding practice",
    "Choose quality problems over quantity",
    "Review and optimize your solutions"
  ],
  "resources": [
    "LeetCode for algorithm practice",
    "GeeksforGeeks for concept explanations",
    "YouTube coding channels for tutorials"
  ],
  "next_steps": "Start with easy problems and gradually increase difficulty",
  "motivation": "Every expert was once a beginner. Consistent practice leads to mastery!"
}`

const adviceText = "Focus on consistent daily practice and understanding programming fundamentals. " +
	"Start with easy problems and gradually build up your skills. Remember, every expert was once a beginner!"

const linkedListExplanation = `A linked list is a fundamental data structure where elements (called nodes) are stored in sequence, but unlike arrays, they're not stored in contiguous memory locations. Each node contains two parts: the data and a pointer (or reference) to the next node in the sequence.

Think of it like a treasure hunt where each clue leads you to the next location. In a linked list, you start at the first node (called the head), and each node tells you where to find the next one. The last node points to null, indicating the end of the list.

The main advantage of linked lists is that they can grow or shrink during runtime, and inserting or deleting elements is efficient if you know the position. However, accessing a specific element requires traversing from the beginning, making it slower than arrays for random access.`

const hashTableExplanation = `A hash table (also called a hash map) is a data structure that implements an associative array, which means it can map keys to values. It's like a super-efficient filing system where you can instantly find any document by its label.

Here's how it works: when you want to store a key-value pair, the hash table uses a hash function to convert the key into an array index. This hash function takes the key and performs some mathematical operations to generate a number that corresponds to a position in an underlying array.

The beauty of hash tables is their speed - on average, you can insert, delete, or search for elements in O(1) constant time. This makes them incredibly useful for things like database indexing, caching, and implementing dictionaries or sets.`

const binarySearchExplanation = `Binary search is an incredibly efficient algorithm for finding a specific element in a sorted array or list. It works by repeatedly dividing the search space in half, which is why it's called "binary" (meaning two parts).

Here's the process: you start by looking at the middle element of the sorted array. If that's your target, you're done! If your target is smaller than the middle element, you know it must be in the left half, so you discard the right half. If your target is larger, you discard the left half.

The power of binary search is its efficiency - it has O(log n) time complexity, meaning that even in an array of a million elements, you'd need at most about 20 comparisons to find any element.`

const recursionExplanation = `Recursion is a programming technique where a function calls itself to solve a problem by breaking it down into smaller, similar subproblems. It's like those Russian nesting dolls - each doll contains a smaller version of itself until you reach the smallest one.

Every recursive function needs two essential parts: a base case (the condition that stops the recursion) and a recursive case (where the function calls itself with a modified input). Without a base case, the function would call itself forever, causing a stack overflow.

A classic example is calculating factorials. To find 5!, you can say it's 5 x 4!, and 4! is 4 x 3!, and so on until you reach 1! = 1 (the base case). Recursion is particularly elegant for problems with tree-like structures.`

const genericExplanation = `I understand you're asking about a programming concept. Programming concepts often build on each other, so it's helpful to understand the fundamentals first. If you're learning about data structures, start with arrays and work your way up to more complex structures. For algorithms, begin with simple sorting and searching techniques before moving to advanced topics.

Feel free to ask me about specific aspects of the concept you're interested in, and I'll do my best to help explain it in a clear, understandable way.`
