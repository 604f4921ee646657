package rules

// SeaSaltAndPaper is the rules reference the assistant searches.
const SeaSaltAndPaper = `# Sea Salt & Paper

## Game Objective
Be the first player to reach the target score over several rounds.
- 2 players: 40 points
- 3 players: 35 points
- 4 players: 30 points

## Taking a Turn
Each turn has three steps, in order.

### Step 1: Add a Card to Your Hand
Choose one option:
- Draw from the deck: take the top two cards, keep one secretly and place the other face up on either discard pile.
- Take from a discard pile: take the top card of one of the two discard piles.

### Step 2: Play Duo Cards (optional)
If you hold a pair of duo cards you may play them face up in front of you to trigger their effect immediately. Several pairs may be played in the same turn.

### Step 3: End the Round (optional)
With 7 or more points between your hand and the table you may end the round by announcing STOP or LAST CHANCE. Otherwise your turn ends.

## Ending a Round
A player with at least 7 points ends the round and reveals their hand.

### Stop
The round ends immediately. Every player reveals their hand and scores the points of their cards.

### Last Chance
You bet that your score is the highest.
- Every other player takes one final turn, then all scores are calculated.
- If your score is the highest or tied for highest, you win the bet: you score your cards plus your color bonus, and every other player scores only their color bonus.
- If any opponent scores more than you, you lose the bet: you score only your color bonus and every other player scores their cards.

### Empty Deck
If the deck runs out, the round ends immediately and nobody scores that round.

## Duo Cards
Play a pair to trigger its effect.
- Crabs: look through a discard pile and take any card from it.
- Boats: immediately take another turn.
- Fish: draw the top card of the deck.
- Shark and Swimmer: steal a random card from an opponent's hand.

## Collector Cards
Collector cards score according to how many you hold: shells, octopus, penguins and sailors.

## Bonus Cards
Bonus cards multiply other cards and count toward the color bonus.
- Mermaids: there are 4 in the deck. Playing all 4 wins the game instantly.
- Lighthouse (yellow): 1 point per boat.
- Shoal of fish (light blue): 1 point per fish.
- Penguin colony (dark blue): 2 points per penguin.
- Captain (orange): 3 points per sailor.

## Scoring Summary
Points are calculated at the end of a round.

### Duo Card Scoring
Every pair of duo cards (crabs, boats, fish, shark and swimmer) is worth 1 point.

### Collector Card Scoring
- Shells: 1 = 0, 2 = 2, 3 = 4, 4 = 6, 5 = 8, 6 = 10 points.
- Octopus: 1 = 0, 2 = 3, 3 = 6, 4 = 9, 5 = 12 points.
- Penguins: 1 = 1, 2 = 3, 3 = 5 points.
- Sailors: 1 = 0, 2 = 5 points.

### Color Bonus Scoring
The color bonus matters mostly when LAST CHANCE is called.
- You score a color only if you hold the most cards of that color among all players. Ties count: every tied player scores it.
- A qualifying color scores 1 point per card of that color.
- Colors: lighthouses (yellow), shoals of fish (light blue), penguin colonies (dark blue) and captains (orange).
- Mermaids are a color (pink) and each mermaid lets you score one qualifying color group. One mermaid scores your largest qualifying color, two mermaids your two largest, and so on.
`
