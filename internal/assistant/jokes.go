package assistant

var jokes = []string{
	"Why don't scientists trust atoms? Because they make up everything.",
	"I told my computer I needed a break, and it said no problem, it would go to sleep.",
	"Why did the scarecrow win an award? Because he was outstanding in his field.",
	"Why do programmers prefer dark mode? Because light attracts bugs.",
	"I would tell you a UDP joke, but you might not get it.",
	"Why was the math book sad? It had too many problems.",
	"What do you call a fake noodle? An impasta.",
	"Why did the computer go to the doctor? It had a virus.",
	"How does a penguin build its house? Igloos it together.",
	"Why can't a bicycle stand up by itself? It's two tired.",
	"There are 10 kinds of people in the world: those who understand binary and those who don't.",
	"Why did the developer go broke? Because he used up all his cache.",
	"What do you call a bear with no teeth? A gummy bear.",
	"Why don't skeletons fight each other? They don't have the guts.",
	"I'm reading a book about anti-gravity. It's impossible to put down.",
	"What did the ocean say to the beach? Nothing, it just waved.",
	"Why did the function break up with the loop? It felt like they were going in circles.",
	"Parallel lines have so much in common. It's a shame they'll never meet.",
	"Why did the keyboard get a promotion? It always had the right keys.",
	"What is a computer's favorite snack? Microchips.",
}
